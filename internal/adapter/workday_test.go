package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/filter"
)

type workdayFixture struct {
	srv          *httptest.Server
	listingCalls atomic.Int32
	detailCalls  atomic.Int32
	lastSearch   atomic.Value
}

func newWorkdayFixture(t *testing.T, total int, listings []workdayListing) *workdayFixture {
	t.Helper()
	f := &workdayFixture{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			f.listingCalls.Add(1)
			var req workdayListingRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.lastSearch.Store(req.SearchText)
			_ = json.NewEncoder(w).Encode(workdayListingResponse{Total: total, JobPostings: listings})
			return
		}
		f.detailCalls.Add(1)
		path := strings.TrimPrefix(r.URL.Path, "/")
		_ = json.NewEncoder(w).Encode(workdayDetailResponse{JobPostingInfo: workdayJobDetail{
			Title:          "Detail " + path,
			Location:       "Pune, India",
			ExternalURL:    "https://acme.wd5.myworkdayjobs.com/" + path,
			JobDescription: "<p>0-2 years</p>",
		}})
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestWorkday(f *workdayFixture, now time.Time, pre *filter.KeywordFilter) *WorkdaySource {
	var src *WorkdaySource
	if pre == nil {
		src = NewWorkdaySource("workday:acme", f.srv.URL, "Acme", "Data Analyst", f.srv.Client(), nil)
	} else {
		src = NewWorkdaySource("workday:acme", f.srv.URL, "Acme", "Data Analyst", f.srv.Client(), pre)
	}
	src.now = func() time.Time { return now }
	return src
}

var workdayListings = []workdayListing{
	{Title: "Data Analyst", ExternalPath: "job/today", LocationsText: "Pune, India", PostedOn: "Posted Today"},
	{Title: "Data Analyst", ExternalPath: "job/two", LocationsText: "2 Locations", PostedOn: "Posted 2 Days Ago"},
	{Title: "Data Analyst", ExternalPath: "job/old", LocationsText: "Pune, India", PostedOn: "Posted 30+ Days Ago"},
}

func TestWorkdayFetch_FirstRunKeepsFreshListings(t *testing.T) {
	f := newWorkdayFixture(t, 3, workdayListings)
	src := newTestWorkday(f, time.Now(), nil)

	jobs, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "Detail job/today", j.Title)
	assert.Equal(t, "Posted Today", j.PostedText)
	assert.Equal(t, "0-2 years", j.Description)
	assert.Equal(t, "https://acme.wd5.myworkdayjobs.com/job/today", j.URL)
	assert.Equal(t, "workday:acme", j.Portal)
	assert.Equal(t, "Data Analyst", f.lastSearch.Load())
	assert.EqualValues(t, 1, f.detailCalls.Load())
}

func TestWorkdayFetch_SinceWidensWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newWorkdayFixture(t, 3, workdayListings)
	src := newTestWorkday(f, now, nil)
	since := now.Add(-50 * time.Hour)

	jobs, err := src.Fetch(context.Background(), &since)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestWorkdayFetch_StopsPagingAtStaleListing(t *testing.T) {
	f := newWorkdayFixture(t, 100, workdayListings)
	src := newTestWorkday(f, time.Now(), nil)

	_, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.listingCalls.Load())
}

func TestWorkdayFetch_PreFilterSkipsDetail(t *testing.T) {
	listings := []workdayListing{
		{Title: "Data Analyst", ExternalPath: "job/a", LocationsText: "London, UK", PostedOn: "Posted Today"},
		{Title: "Data Analyst", ExternalPath: "job/b", LocationsText: "3 Locations", PostedOn: "Posted Today"},
		{Title: "Recruiter", ExternalPath: "job/c", LocationsText: "3 Locations", PostedOn: "Posted Today"},
		{Title: "Data Analyst", ExternalPath: "job/d", LocationsText: "Pune, India", PostedOn: "Posted Today"},
	}
	f := newWorkdayFixture(t, 4, listings)
	pre := filter.NewKeywordFilter([]string{"analyst"}, nil, []string{"india"})
	src := newTestWorkday(f, time.Now(), pre)

	jobs, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Detail job/b", jobs[0].Title)
	assert.Equal(t, "Detail job/d", jobs[1].Title)
}

func TestDaysAgo(t *testing.T) {
	assert.Equal(t, 0, daysAgo("Posted Today"))
	assert.Equal(t, 1, daysAgo("Posted Yesterday"))
	assert.Equal(t, 4, daysAgo("Posted 4 Days Ago"))
	assert.Equal(t, workdayStaleDays, daysAgo("Posted 30+ Days Ago"))
	assert.Equal(t, workdayStaleDays, daysAgo(""))
}
