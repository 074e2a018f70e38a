package adapter

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ashbyPayload = `{
	"jobs": [
		{
			"title": "Data Analyst",
			"location": "Bengaluru",
			"jobUrl": "https://jobs.ashbyhq.com/acme/1",
			"publishedAt": "2026-02-12T10:00:00.000+00:00",
			"isListed": true,
			"descriptionPlain": "0-1 years",
			"compensation": {"compensationTierSummary": "₹18L – ₹24L"}
		},
		{
			"title": "Hidden Role",
			"jobUrl": "https://jobs.ashbyhq.com/acme/2",
			"publishedAt": "2026-02-12T10:00:00Z",
			"isListed": false
		},
		{
			"title": "Old Analyst",
			"jobUrl": "https://jobs.ashbyhq.com/acme/3",
			"publishedAt": "2026-01-01T10:00:00Z",
			"isListed": true
		}
	]
}`

func TestAshbyFetch(t *testing.T) {
	srv, lastURL := jsonServer(t, http.StatusOK, ashbyPayload)
	src := NewAshbySource("ashby:acme", "acme", "Acme", "Data Analyst", srv.URL, srv.Client())

	jobs, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2, "unlisted jobs are skipped")
	assert.Equal(t, "/acme?includeCompensation=true", *lastURL)
	assert.Equal(t, "₹18L – ₹24L", jobs[0].SalaryText)
	assert.Equal(t, "2026-02-12T10:00:00Z", jobs[0].PostedText)

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	jobs, err = src.Fetch(context.Background(), &since)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Data Analyst", jobs[0].Title)
}
