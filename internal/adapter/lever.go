package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

type leverSalaryRange struct {
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	Description      string            `json:"description"`
	DescriptionPlain string            `json:"descriptionPlain"`
	Categories       leverCategories   `json:"categories"`
	CreatedAt        int64             `json:"createdAt"`
	HostedURL        string            `json:"hostedUrl"`
	SalaryRange      *leverSalaryRange `json:"salaryRange"`
}

// LeverSource fetches jobs from the Lever public postings API.
type LeverSource struct {
	board
	companySlug string
}

// NewLeverSource creates a source for a Lever board.
func NewLeverSource(name, companySlug, companyName, role, baseURL string, client *http.Client) *LeverSource {
	return &LeverSource{
		board: board{
			name:        name,
			companyName: companyName,
			role:        role,
			baseURL:     withDefault(baseURL, leverBaseURL),
			client:      client,
		},
		companySlug: companySlug,
	}
}

// Fetch retrieves the board's postings created after since.
func (s *LeverSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	url := fmt.Sprintf("%s/%s?mode=json", s.baseURL, s.companySlug)

	var leverJobs []leverJob
	if err := doJSON(ctx, s.client, http.MethodGet, url, nil, &leverJobs, "lever fetch for "+s.companySlug); err != nil {
		return nil, err
	}

	jobs := make([]model.RawJob, 0, len(leverJobs))
	for _, lj := range leverJobs {
		var posted *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			posted = &t
		}
		if !postedAfter(posted, since) {
			continue
		}

		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}
		desc := lj.DescriptionPlain
		if desc == "" {
			desc = extractText(lj.Description)
		}

		jobs = append(jobs, model.RawJob{
			Title:       lj.Text,
			Company:     s.companyName,
			Location:    location,
			SalaryText:  leverSalary(lj.SalaryRange),
			Description: desc,
			URL:         lj.HostedURL,
			Portal:      s.name,
			PostedText:  formatTime(posted),
			SearchRole:  s.role,
		})
	}
	return jobs, nil
}

// leverSalary renders yearly INR ranges in the form the salary parser reads.
// Other currencies are passed through verbatim.
func leverSalary(r *leverSalaryRange) string {
	if r == nil || (r.Min == 0 && r.Max == 0) {
		return ""
	}
	if strings.EqualFold(r.Currency, "INR") && (r.Interval == "" || strings.Contains(r.Interval, "year")) {
		return fmt.Sprintf("%d-%d LPA", int(r.Min/100000), int(r.Max/100000))
	}
	return fmt.Sprintf("%s %.0f-%.0f %s", r.Currency, r.Min, r.Max, r.Interval)
}
