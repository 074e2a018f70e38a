package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/adapter"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/orchestrator"
	"github.com/amishk599/jobscout/internal/ratelimit"
	"github.com/amishk599/jobscout/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateSource(t *testing.T) {
	tests := []struct {
		src  config.SourceConfig
		want model.Source
	}{
		{config.SourceConfig{Type: "hh", Query: "analyst"}, &adapter.HHSource{}},
		{config.SourceConfig{Type: "greenhouse", BoardToken: "acme", Company: "Acme"}, &adapter.GreenhouseSource{}},
		{config.SourceConfig{Type: "lever", BoardToken: "acme", Company: "Acme"}, &adapter.LeverSource{}},
		{config.SourceConfig{Type: "ashby", BoardToken: "acme", Company: "Acme"}, &adapter.AshbySource{}},
		{config.SourceConfig{Type: "gem", BoardToken: "acme", Company: "Acme"}, &adapter.GemSource{}},
		{config.SourceConfig{Type: "workday", URL: "https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/careers", Company: "Acme"}, &adapter.WorkdaySource{}},
		{config.SourceConfig{Type: "microsoft", Location: "India"}, &adapter.MicrosoftSource{}},
	}
	for _, tt := range tests {
		t.Run(tt.src.Type, func(t *testing.T) {
			src, ok := createSource(tt.src, "Data Analyst", http.DefaultClient, nil, discardLogger())
			require.True(t, ok)
			assert.IsType(t, tt.want, src)
			assert.Equal(t, tt.src.Label(), src.Name())
		})
	}

	_, ok := createSource(config.SourceConfig{Type: "monster"}, "Data Analyst", http.DefaultClient, nil, discardLogger())
	assert.False(t, ok)
}

func TestBuildTiers(t *testing.T) {
	cfg := &config.Config{
		Sources: config.SourcesConfig{
			Role: "Data Analyst",
			Portals: []config.SourceConfig{
				{Name: "hh", Type: "hh", Enabled: true},
				{Name: "hh-off", Type: "hh"},
			},
			Companies: []config.SourceConfig{
				{Name: "acme", Type: "greenhouse", BoardToken: "acme", Company: "Acme", Enabled: true},
				{Name: "msft", Type: "microsoft", Enabled: true},
			},
		},
		Retry: config.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond},
	}

	tiers := buildTiers(cfg, nil, http.DefaultClient, discardLogger())
	require.Len(t, tiers, 2)
	assert.Equal(t, "portals", tiers[0].Name)
	assert.Equal(t, "companies", tiers[1].Name)
	require.Len(t, tiers[0].Sources, 1)
	require.Len(t, tiers[1].Sources, 2)

	hh := tiers[0].Sources[0]
	assert.IsType(t, &ratelimit.RateLimitedSource{}, hh)
	assert.Equal(t, "hh", hh.Name())
	assert.True(t, model.SupportsSince(hh), "since capability survives the decorators")
	assert.Equal(t, []string{"acme", "msft"}, []string{tiers[1].Sources[0].Name(), tiers[1].Sources[1].Name()})
}

func TestSalaryTable(t *testing.T) {
	table := salaryTable(map[string]float64{"TinyCo": 4, "amazon": 40})

	e, ok := table.Lookup("TinyCo Labs")
	require.True(t, ok)
	assert.Equal(t, 4.0, e.LPA)

	e, ok = table.Lookup("Amazon Development Centre")
	require.True(t, ok)
	assert.Equal(t, 40.0, e.LPA, "configured entries win over built-in ones")

	_, ok = table.Lookup("Flipkart")
	assert.True(t, ok)
}

func TestSalaryTable_DeterministicOrder(t *testing.T) {
	extra := map[string]float64{"zenith": 30, "acme": 10, "mid": 20, "nova": 25, "orbit": 12}
	for range 50 {
		e, ok := salaryTable(extra).Lookup("Acme Zenith Nova Orbit Mid JV")
		require.True(t, ok)
		assert.Equal(t, "acme", e.Name)
		assert.Equal(t, 10.0, e.LPA)
	}
}

func TestPrune(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	now := time.Now()
	job := func(key string, found time.Time) model.AnnotatedJob {
		return model.AnnotatedJob{
			Job: model.Job{RawJob: model.RawJob{Title: "Analyst", Company: "Acme", URL: key}, PostedAt: found, FoundAt: found},
			Key: key,
		}
	}
	require.NoError(t, s.Append(ctx, []model.AnnotatedJob{
		job("https://a/1", now),
		job("https://a/2", now),
		job("https://a/3", now.Add(-60*24*time.Hour)),
	}))
	n, err := s.MarkReviewed(ctx, []string{"https://a/1"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, prune(ctx, s, 30*24*time.Hour, discardLogger()))

	keys, err := s.ExistingKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"https://a/2": {}}, keys)
}

func TestPrintReport(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rep := orchestrator.Report{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Result: orchestrator.Result{
			Statuses: []model.SourceStatus{
				{Name: "hh", Tier: "portals", State: model.SourceOK, Records: 3},
				{Name: "acme", Tier: "companies", State: model.SourceFailed, Err: "boom"},
			},
			Fetched:       3,
			Unique:        3,
			Rejected:      2,
			RejectReasons: map[string]int{"Senior role": 2},
			Accepted: []model.AnnotatedJob{{
				Job:      model.Job{RawJob: model.RawJob{Title: "Data Analyst", Company: "Google", Portal: "hh"}},
				Salary:   "30 LPA",
				Priority: model.PriorityHigh,
			}},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	out := buf.String()

	for _, want := range []string{"run-1", "first run", "boom", "Senior role", "Data Analyst", "HIGH", "1 / 0 / 1"} {
		assert.Contains(t, out, want)
	}
}
