package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	Title            string             `json:"title"`
	Location         string             `json:"location"`
	JobURL           string             `json:"jobUrl"`
	PublishedAt      string             `json:"publishedAt"`
	IsListed         bool               `json:"isListed"`
	DescriptionPlain string             `json:"descriptionPlain"`
	Compensation     *ashbyCompensation `json:"compensation"`
}

type ashbyCompensation struct {
	Summary string `json:"compensationTierSummary"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbySource fetches jobs from the Ashby public job board API.
type AshbySource struct {
	board
	boardToken string
}

// NewAshbySource creates a source for an Ashby job board.
func NewAshbySource(name, boardToken, companyName, role, baseURL string, client *http.Client) *AshbySource {
	return &AshbySource{
		board: board{
			name:        name,
			companyName: companyName,
			role:        role,
			baseURL:     withDefault(baseURL, ashbyBaseURL),
			client:      client,
		},
		boardToken: boardToken,
	}
}

// Fetch retrieves listed jobs published after since, with compensation.
func (s *AshbySource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	url := fmt.Sprintf("%s/%s?includeCompensation=true", s.baseURL, s.boardToken)

	var ashbyResp ashbyResponse
	if err := doJSON(ctx, s.client, http.MethodGet, url, nil, &ashbyResp, "ashby fetch for "+s.boardToken); err != nil {
		return nil, err
	}

	jobs := make([]model.RawJob, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}
		posted := parseRFC3339(aj.PublishedAt)
		if !postedAfter(posted, since) {
			continue
		}

		var salary string
		if aj.Compensation != nil {
			salary = aj.Compensation.Summary
		}
		jobs = append(jobs, model.RawJob{
			Title:       aj.Title,
			Company:     s.companyName,
			Location:    aj.Location,
			SalaryText:  salary,
			Description: aj.DescriptionPlain,
			URL:         aj.JobURL,
			Portal:      s.name,
			PostedText:  formatTime(posted),
			SearchRole:  s.role,
		})
	}
	return jobs, nil
}
