package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

// jsonServer serves payload for every request and records the last path.
func jsonServer(t *testing.T, status int, payload string) (*httptest.Server, *string) {
	t.Helper()
	var lastURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastURL = r.URL.String()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastURL
}

const greenhousePayload = `{
	"jobs": [
		{
			"id": 12345,
			"title": "Data Analyst",
			"location": {"name": "Bengaluru, India"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
			"first_published": "2026-02-10T09:00:00Z",
			"updated_at": "2026-02-13T10:00:00Z",
			"content": "&lt;p&gt;0-2 years of &lt;b&gt;SQL&lt;/b&gt;&lt;/p&gt;"
		},
		{
			"id": 67890,
			"title": "Business Analyst",
			"location": {"name": "Remote, India"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
			"first_published": "2026-02-12T14:00:00Z",
			"updated_at": "2026-02-13T11:30:00Z"
		}
	]
}`

func TestGreenhouseFetch_MapsJobs(t *testing.T) {
	srv, lastURL := jsonServer(t, http.StatusOK, greenhousePayload)
	src := NewGreenhouseSource("greenhouse:acme", "acme", "Acme Corp", "Data Analyst", srv.URL, srv.Client())

	jobs, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "/acme/jobs?content=true", *lastURL)

	j := jobs[0]
	assert.Equal(t, "Data Analyst", j.Title)
	assert.Equal(t, "Acme Corp", j.Company)
	assert.Equal(t, "Bengaluru, India", j.Location)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/12345", j.URL)
	assert.Equal(t, "greenhouse:acme", j.Portal)
	assert.Equal(t, "2026-02-10T09:00:00Z", j.PostedText)
	assert.Equal(t, "0-2 years of SQL", j.Description)
	assert.Equal(t, "Data Analyst", j.SearchRole)
}

func TestGreenhouseFetch_FiltersBySince(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, greenhousePayload)
	src := NewGreenhouseSource("greenhouse:acme", "acme", "Acme Corp", "", srv.URL, srv.Client())
	since := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)

	jobs, err := src.Fetch(context.Background(), &since)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Business Analyst", jobs[0].Title)
	assert.True(t, model.SupportsSince(src))
}

func TestGreenhouseFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	src := NewGreenhouseSource("greenhouse:acme", "acme", "Acme Corp", "", srv.URL, srv.Client())

	_, err := src.Fetch(context.Background(), nil)
	var httpErr *model.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, 7*time.Second, httpErr.RetryAfter)
}

func TestGreenhouseFetch_BadJSON(t *testing.T) {
	srv, _ := jsonServer(t, http.StatusOK, `{not json`)
	src := NewGreenhouseSource("greenhouse:acme", "acme", "Acme Corp", "", srv.URL, srv.Client())

	_, err := src.Fetch(context.Background(), nil)
	assert.Error(t, err)
}
