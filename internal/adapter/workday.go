package adapter

import (
	"context"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const (
	workdayPageSize = 20
	// workdayFirstRunDays bounds the first run, when there is no watermark.
	workdayFirstRunDays = 1
	// workdayStaleDays stands in for "Posted 30+ Days Ago".
	workdayStaleDays = 31
)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string `json:"title"`
	ExternalPath  string `json:"externalPath"`
	LocationsText string `json:"locationsText"`
	PostedOn      string `json:"postedOn"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdayDetailResponse is the response from the Workday job detail endpoint.
type workdayDetailResponse struct {
	JobPostingInfo workdayJobDetail `json:"jobPostingInfo"`
}

type workdayJobDetail struct {
	Title               string   `json:"title"`
	Location            string   `json:"location"`
	PostedOn            string   `json:"postedOn"`
	ExternalURL         string   `json:"externalUrl"`
	JobDescription      string   `json:"jobDescription"`
	AdditionalLocations []string `json:"additionalLocations"`
}

// WorkdaySource fetches jobs from a Workday career site.
type WorkdaySource struct {
	board
	preFilter model.JobFilter // optional: skips detail fetches for listings that clearly won't match
	now       func() time.Time
}

// NewWorkdaySource creates a source for a Workday career site. baseURL is the
// site's CXS endpoint, e.g. https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/careers.
// preFilter may be nil.
func NewWorkdaySource(name, baseURL, companyName, role string, client *http.Client, preFilter model.JobFilter) *WorkdaySource {
	return &WorkdaySource{
		board: board{
			name:        name,
			companyName: companyName,
			role:        role,
			baseURL:     strings.TrimRight(baseURL, "/"),
			client:      client,
		},
		preFilter: preFilter,
		now:       time.Now,
	}
}

// Fetch uses a two-phase approach:
//  1. Paginate POST /jobs searching for the role, keeping listings inside the
//     since window (whole days, since Workday only reports relative days).
//  2. GET the detail of each kept listing for its description and apply URL.
//
// The relative postedOn text is passed on for timestamp normalization.
func (s *WorkdaySource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	window := s.windowDays(since)

	listings, err := s.fetchListings(ctx, window)
	if err != nil {
		return nil, err
	}

	var jobs []model.RawJob
	for _, l := range listings {
		if daysAgo(l.PostedOn) > window || !s.listingPassesPreFilter(l) {
			continue
		}
		job, err := s.fetchDetail(ctx, l)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// windowDays is the number of whole days covered by since, rounded up.
func (s *WorkdaySource) windowDays(since *time.Time) int {
	if since == nil {
		return workdayFirstRunDays
	}
	days := int(math.Ceil(s.now().Sub(*since).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

func (s *WorkdaySource) fetchListings(ctx context.Context, window int) ([]workdayListing, error) {
	var all []workdayListing
	offset := 0

	for {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
			SearchText:    s.role,
		}

		var listResp workdayListingResponse
		if err := doJSON(ctx, s.client, http.MethodPost, s.baseURL+"/jobs", body, &listResp, "workday listing fetch for "+s.companyName); err != nil {
			return nil, err
		}
		all = append(all, listResp.JobPostings...)

		// Listings come newest first, so once the last one on a page is outside
		// the window every later page is too.
		if n := len(listResp.JobPostings); n == 0 || daysAgo(listResp.JobPostings[n-1].PostedOn) > window {
			break
		}

		offset += workdayPageSize
		if offset >= listResp.Total {
			break
		}
	}
	return all, nil
}

func (s *WorkdaySource) fetchDetail(ctx context.Context, listing workdayListing) (model.RawJob, error) {
	var detail workdayDetailResponse
	url := s.baseURL + "/" + strings.TrimLeft(listing.ExternalPath, "/")
	if err := doJSON(ctx, s.client, http.MethodGet, url, nil, &detail, "workday detail fetch for "+s.companyName); err != nil {
		return model.RawJob{}, err
	}

	info := detail.JobPostingInfo
	location := info.Location
	if len(info.AdditionalLocations) > 0 {
		location = location + "; " + strings.Join(info.AdditionalLocations, "; ")
	}
	if location == "" {
		location = listing.LocationsText
	}
	title := info.Title
	if title == "" {
		title = listing.Title
	}
	posted := info.PostedOn
	if posted == "" {
		posted = listing.PostedOn
	}

	return model.RawJob{
		Title:       title,
		Company:     s.companyName,
		Location:    location,
		Description: extractText(info.JobDescription),
		URL:         info.ExternalURL,
		Portal:      s.name,
		PostedText:  posted,
		SearchRole:  s.role,
	}, nil
}

var ambiguousLocationRegex = regexp.MustCompile(`^\d+ Locations?$`)

// titleMatcher is implemented by filters that can judge a job on its title
// alone.
type titleMatcher interface {
	MatchTitle(job model.Job) bool
}

// listingPassesPreFilter checks whether a listing is worth fetching details for.
// Ambiguous locations like "2 Locations" are judged on the title only, because
// the real location is only known after the detail fetch.
func (s *WorkdaySource) listingPassesPreFilter(l workdayListing) bool {
	if s.preFilter == nil {
		return true
	}
	candidate := model.Job{RawJob: model.RawJob{Title: l.Title, Location: l.LocationsText}}
	if isAmbiguousLocation(l.LocationsText) {
		tm, ok := s.preFilter.(titleMatcher)
		return !ok || tm.MatchTitle(candidate)
	}
	return s.preFilter.Match(candidate)
}

// isAmbiguousLocation returns true for Workday location strings like
// "2 Locations" or "5 Locations" where the actual location is unknown.
func isAmbiguousLocation(loc string) bool {
	return ambiguousLocationRegex.MatchString(loc)
}

var daysAgoRegex = regexp.MustCompile(`^Posted (\d+) Days? Ago$`)

// daysAgo converts a Workday postedOn string to whole days. Unknown strings
// count as stale.
func daysAgo(postedOn string) int {
	switch postedOn {
	case "Posted Today":
		return 0
	case "Posted Yesterday":
		return 1
	}
	m := daysAgoRegex.FindStringSubmatch(postedOn)
	if m == nil {
		return workdayStaleDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return workdayStaleDays
	}
	return n
}
