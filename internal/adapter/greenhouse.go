package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	UpdatedAt      string             `json:"updated_at"`
	FirstPublished string             `json:"first_published"`
	Content        string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseSource fetches jobs from the Greenhouse public boards API.
type GreenhouseSource struct {
	board
	boardToken string
}

// NewGreenhouseSource creates a source for a Greenhouse board. An empty
// baseURL uses the public API.
func NewGreenhouseSource(name, boardToken, companyName, role, baseURL string, client *http.Client) *GreenhouseSource {
	return &GreenhouseSource{
		board: board{
			name:        name,
			companyName: companyName,
			role:        role,
			baseURL:     withDefault(baseURL, greenhouseBaseURL),
			client:      client,
		},
		boardToken: boardToken,
	}
}

// Fetch retrieves the board's jobs with their content. Greenhouse has no
// server-side time filter, so since is applied to the publish time here.
func (s *GreenhouseSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", s.baseURL, s.boardToken)

	var ghResp greenhouseResponse
	if err := doJSON(ctx, s.client, http.MethodGet, url, nil, &ghResp, "greenhouse fetch for "+s.boardToken); err != nil {
		return nil, err
	}

	jobs := make([]model.RawJob, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		posted := parseRFC3339(gj.FirstPublished)
		if posted == nil {
			posted = parseRFC3339(gj.UpdatedAt)
		}
		if !postedAfter(posted, since) {
			continue
		}
		jobs = append(jobs, model.RawJob{
			Title:       gj.Title,
			Company:     s.companyName,
			Location:    gj.Location.Name,
			Description: extractText(gj.Content),
			URL:         gj.AbsoluteURL,
			Portal:      s.name,
			PostedText:  formatTime(posted),
			SearchRole:  s.role,
		})
	}
	return jobs, nil
}
