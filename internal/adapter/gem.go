package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

type gemJob struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Location       gemLocation `json:"location"`
	AbsoluteURL    string      `json:"absolute_url"`
	FirstPublished string      `json:"first_published_at"`
	Content        string      `json:"content"`
	ContentPlain   string      `json:"content_plain"`
}

type gemLocation struct {
	Name string `json:"name"`
}

// GemSource fetches jobs from the Gem public job board API.
type GemSource struct {
	board
	boardToken string
}

// NewGemSource creates a source for a Gem job board.
func NewGemSource(name, boardToken, companyName, role, baseURL string, client *http.Client) *GemSource {
	return &GemSource{
		board: board{
			name:        name,
			companyName: companyName,
			role:        role,
			baseURL:     withDefault(baseURL, gemBaseURL),
			client:      client,
		},
		boardToken: boardToken,
	}
}

// Fetch retrieves the board's job posts first published after since.
func (s *GemSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	url := fmt.Sprintf("%s/%s/job_posts/", s.baseURL, s.boardToken)

	var gemJobs []gemJob
	if err := doJSON(ctx, s.client, http.MethodGet, url, nil, &gemJobs, "gem fetch for "+s.boardToken); err != nil {
		return nil, err
	}

	jobs := make([]model.RawJob, 0, len(gemJobs))
	for _, gj := range gemJobs {
		posted := parseRFC3339(gj.FirstPublished)
		if !postedAfter(posted, since) {
			continue
		}
		desc := gj.ContentPlain
		if desc == "" {
			desc = extractText(gj.Content)
		}
		jobs = append(jobs, model.RawJob{
			Title:       gj.Title,
			Company:     s.companyName,
			Location:    gj.Location.Name,
			Description: desc,
			URL:         gj.AbsoluteURL,
			Portal:      s.name,
			PostedText:  formatTime(posted),
			SearchRole:  s.role,
		})
	}
	return jobs, nil
}
