package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const (
	microsoftBaseURL  = "https://apply.careers.microsoft.com"
	microsoftPageSize = 10
	// microsoftFirstRun bounds the first run, when there is no watermark.
	microsoftFirstRun = 24 * time.Hour
	microsoftMaxPages = 20
)

// microsoftPosition represents a single position in the Microsoft search API response.
type microsoftPosition struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Locations   []string `json:"locations"`
	PostedTs    int64    `json:"postedTs"`
	PositionURL string   `json:"positionUrl"`
}

// microsoftSearchResponse is the top-level Microsoft search API response.
type microsoftSearchResponse struct {
	Data struct {
		Positions []microsoftPosition `json:"positions"`
		Count     int                 `json:"count"`
	} `json:"data"`
}

// microsoftDetailResponse is the response from the Microsoft position detail endpoint.
type microsoftDetailResponse struct {
	Data struct {
		JobDescription string `json:"jobDescription"`
		PublicURL      string `json:"publicUrl"`
	} `json:"data"`
}

// MicrosoftSource searches the Microsoft careers API for the role.
type MicrosoftSource struct {
	board
	location string
	now      func() time.Time
}

// NewMicrosoftSource creates a source searching Microsoft careers for role in
// location (e.g. "India").
func NewMicrosoftSource(name, role, location, baseURL string, client *http.Client) *MicrosoftSource {
	return &MicrosoftSource{
		board: board{
			name:        name,
			companyName: "Microsoft",
			role:        role,
			baseURL:     withDefault(baseURL, microsoftBaseURL),
			client:      client,
		},
		location: location,
		now:      time.Now,
	}
}

// Fetch pages through search results sorted by time, newest first, stopping at
// the first page with nothing newer than the cutoff, then fetches each kept
// position's description.
func (s *MicrosoftSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	cutoff := s.now().Add(-microsoftFirstRun)
	if since != nil {
		cutoff = *since
	}

	var jobs []model.RawJob
	for page := 0; page < microsoftMaxPages; page++ {
		start := page * microsoftPageSize
		positions, count, err := s.fetchPage(ctx, start)
		if err != nil {
			return nil, err
		}

		anyFresh := false
		for _, p := range positions {
			if p.PostedTs == 0 {
				continue
			}
			posted := time.Unix(p.PostedTs, 0).UTC()
			if !posted.After(cutoff) {
				continue
			}
			anyFresh = true
			job, err := s.jobFromPosition(ctx, p, posted)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
		}

		if !anyFresh || start+microsoftPageSize >= count {
			break
		}
	}
	return jobs, nil
}

// fetchPage fetches a single page of search results at the given start offset.
func (s *MicrosoftSource) fetchPage(ctx context.Context, start int) ([]microsoftPosition, int, error) {
	q := url.Values{}
	q.Set("domain", "microsoft.com")
	q.Set("query", s.role)
	q.Set("location", s.location)
	q.Set("start", strconv.Itoa(start))
	q.Set("sort_by", "timestamp")
	u := s.baseURL + "/api/pcsx/search?" + q.Encode()

	var msResp microsoftSearchResponse
	if err := doJSON(ctx, s.client, http.MethodGet, u, nil, &msResp, fmt.Sprintf("microsoft fetch page (start=%d)", start)); err != nil {
		return nil, 0, err
	}
	return msResp.Data.Positions, msResp.Data.Count, nil
}

func (s *MicrosoftSource) jobFromPosition(ctx context.Context, p microsoftPosition, posted time.Time) (model.RawJob, error) {
	location := ""
	if len(p.Locations) > 0 {
		location = p.Locations[0]
	}
	job := model.RawJob{
		Title:      p.Name,
		Company:    s.companyName,
		Location:   location,
		URL:        s.baseURL + p.PositionURL,
		Portal:     s.name,
		PostedText: posted.Format(time.RFC3339),
		SearchRole: s.role,
	}

	q := url.Values{}
	q.Set("position_id", strconv.FormatInt(p.ID, 10))
	q.Set("domain", "microsoft.com")
	q.Set("hl", "en")
	u := s.baseURL + "/api/pcsx/position_details?" + q.Encode()

	var detail microsoftDetailResponse
	if err := doJSON(ctx, s.client, http.MethodGet, u, nil, &detail, fmt.Sprintf("microsoft detail fetch for job %d", p.ID)); err != nil {
		return model.RawJob{}, err
	}
	job.Description = extractText(detail.Data.JobDescription)
	if detail.Data.PublicURL != "" {
		job.URL = detail.Data.PublicURL
	}
	return job, nil
}
