package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const (
	hhBaseURL        = "https://api.hh.ru"
	hhTimeLayout     = "2006-01-02T15:04:05-0700"
	hhPerPage        = 50
	hhDefaultMaxPage = 5
)

// hhExperience maps hh.ru experience ids to text the eligibility rules read.
var hhExperience = map[string]string{
	"noExperience": "No experience required, freshers welcome",
	"between1And3": "1-3 years of experience",
	"between3And6": "3-6 years of experience",
	"moreThan6":    "6+ years of experience",
}

type hhVacancy struct {
	Name        string `json:"name"`
	URL         string `json:"alternate_url"`
	PublishedAt string `json:"published_at"`
	Employer    struct {
		Name string `json:"name"`
	} `json:"employer"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Salary *struct {
		From     *float64 `json:"from"`
		To       *float64 `json:"to"`
		Currency string   `json:"currency"`
	} `json:"salary"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
	Experience *struct {
		ID string `json:"id"`
	} `json:"experience"`
}

type hhResponse struct {
	Items []hhVacancy `json:"items"`
	Pages int         `json:"pages"`
}

// HHSearch configures an hh.ru vacancy search.
type HHSearch struct {
	Text       string // search query, defaults to the role
	AreaID     string
	Experience string // optional hh.ru experience id filter
	MaxPages   int
}

// HHSource is a job-portal source backed by the public hh.ru vacancies API.
// The API filters by publication date server-side.
type HHSource struct {
	name    string
	role    string
	search  HHSearch
	baseURL string
	client  *http.Client
}

// NewHHSource creates an hh.ru source. An empty baseURL uses the public API.
func NewHHSource(name, role string, search HHSearch, baseURL string, client *http.Client) *HHSource {
	if search.Text == "" {
		search.Text = role
	}
	if search.MaxPages <= 0 {
		search.MaxPages = hhDefaultMaxPage
	}
	return &HHSource{
		name:    name,
		role:    role,
		search:  search,
		baseURL: withDefault(baseURL, hhBaseURL),
		client:  client,
	}
}

// Name returns the configured source name.
func (s *HHSource) Name() string { return s.name }

// Close is a no-op.
func (s *HHSource) Close() error { return nil }

// SupportsSince reports that date_from is honored.
func (s *HHSource) SupportsSince() bool { return true }

// Fetch pages through vacancies ordered by publication time.
func (s *HHSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	var jobs []model.RawJob
	for page := 0; page < s.search.MaxPages; page++ {
		var resp hhResponse
		if err := doJSON(ctx, s.client, http.MethodGet, s.searchURL(page, since), nil, &resp, fmt.Sprintf("hh fetch page %d", page)); err != nil {
			return nil, err
		}
		for _, v := range resp.Items {
			jobs = append(jobs, s.toRawJob(v))
		}
		if page+1 >= resp.Pages || len(resp.Items) == 0 {
			break
		}
	}
	return jobs, nil
}

func (s *HHSource) searchURL(page int, since *time.Time) string {
	params := url.Values{}
	params.Add("text", s.search.Text)
	if s.search.AreaID != "" {
		params.Add("area", s.search.AreaID)
	}
	if s.search.Experience != "" {
		params.Add("experience", s.search.Experience)
	}
	params.Add("order_by", "publication_time")
	params.Add("page", strconv.Itoa(page))
	params.Add("per_page", strconv.Itoa(hhPerPage))
	if since != nil {
		params.Add("date_from", since.Format(hhTimeLayout))
	}
	return s.baseURL + "/vacancies?" + params.Encode()
}

func (s *HHSource) toRawJob(v hhVacancy) model.RawJob {
	var desc []string
	if v.Experience != nil {
		if text, ok := hhExperience[v.Experience.ID]; ok {
			desc = append(desc, text)
		}
	}
	for _, part := range []string{v.Snippet.Requirement, v.Snippet.Responsibility} {
		if part != "" {
			desc = append(desc, extractText(part))
		}
	}

	return model.RawJob{
		Title:       v.Name,
		Company:     v.Employer.Name,
		Location:    v.Area.Name,
		SalaryText:  hhSalary(v),
		Description: strings.Join(desc, ". "),
		URL:         v.URL,
		Portal:      s.name,
		PostedText:  v.PublishedAt,
		SearchRole:  s.role,
	}
}

// hhSalary renders INR salaries in LPA and anything else verbatim.
func hhSalary(v hhVacancy) string {
	if v.Salary == nil || (v.Salary.From == nil && v.Salary.To == nil) {
		return ""
	}
	from, to := v.Salary.From, v.Salary.To
	if from == nil {
		from = to
	}
	if to == nil {
		to = from
	}
	if v.Salary.Currency == "INR" {
		return fmt.Sprintf("%d-%d LPA", int(*from/100000), int(*to/100000))
	}
	return fmt.Sprintf("%.0f-%.0f %s", *from, *to, v.Salary.Currency)
}
