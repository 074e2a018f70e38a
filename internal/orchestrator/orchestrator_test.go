package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/filter"
	"github.com/amishk599/jobscout/internal/model"
)

func newOrch(tt []Tier, st Stages, opts Options) *Orchestrator {
	return New(tt, st, opts, nil, discardLogger())
}

func TestRun_SourceIsolation(t *testing.T) {
	a := &fakeSource{name: "a", jobs: []model.RawJob{raw("Data Analyst", "Acme", "u1", "12 LPA")}}
	b := &fakeSource{name: "b", err: errBoom}
	c := &fakeSource{name: "c", jobs: []model.RawJob{raw("Business Analyst", "Globex", "u2", "14 LPA")}}

	o := newOrch(tiers([]model.Source{a, b}, []model.Source{c}), stages(10, nil), Options{Concurrency: 3})
	res, err := o.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, res.Accepted, 2)
	assert.Equal(t, "u1", res.Accepted[0].URL)
	assert.Equal(t, "u2", res.Accepted[1].URL)

	require.Len(t, res.Statuses, 3)
	assert.Equal(t, model.SourceOK, res.Statuses[0].State)
	assert.Equal(t, model.SourceFailed, res.Statuses[1].State)
	assert.Equal(t, "boom", res.Statuses[1].Err)
	assert.Equal(t, "portals", res.Statuses[1].Tier)
	assert.Equal(t, model.SourceOK, res.Statuses[2].State)
	assert.Equal(t, "companies", res.Statuses[2].Tier)
	assert.False(t, res.AllSourcesFailed())

	for _, s := range []*fakeSource{a, b, c} {
		assert.True(t, s.closed.Load(), "source %s closed", s.name)
	}
}

func TestRun_PanickingSourceIsFailed(t *testing.T) {
	bad := &fakeSource{name: "bad", panicMsg: "nil map"}
	good := &fakeSource{name: "good", jobs: []model.RawJob{raw("Data Analyst", "Acme", "u1", "12 LPA")}}

	res, err := newOrch(tiers([]model.Source{bad, good}, nil), stages(10, nil), Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SourceFailed, res.Statuses[0].State)
	assert.Contains(t, res.Statuses[0].Err, "nil map")
	assert.True(t, bad.closed.Load())
	assert.Len(t, res.Accepted, 1)
}

func TestRun_EmptySource(t *testing.T) {
	empty := &fakeSource{name: "empty"}
	res, err := newOrch(tiers([]model.Source{empty}, nil), stages(10, nil), Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SourceEmpty, res.Statuses[0].State)
	assert.Empty(t, res.Accepted)
}

func TestRun_EarlierTierWinsUnderConcurrency(t *testing.T) {
	// the portal is slow, the company page is fast; the portal record still wins
	slow := &fakeSource{name: "portal", delay: 50 * time.Millisecond,
		jobs: []model.RawJob{raw("Data Analyst", "Amazon", "u1", "25-30 LPA")}}
	fast := &fakeSource{name: "careers",
		jobs: []model.RawJob{raw("Data Analyst", "Amazon", "u1", "25-30 LPA")}}

	o := newOrch([]Tier{{Name: "all", Sources: []model.Source{slow, fast}}}, stages(15, nil), Options{Concurrency: 2})
	res, err := o.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "portal", res.Accepted[0].Portal)
}

func TestRun_DuplicateAcrossSources(t *testing.T) {
	first := &fakeSource{name: "hh", jobs: []model.RawJob{raw("Data Analyst", "Amazon", "u1", "25-30 LPA")}}
	second := &fakeSource{name: "amazon", jobs: []model.RawJob{raw("Data Analyst", "Amazon", "u1", "")}}

	res, err := newOrch(tiers([]model.Source{first}, []model.Source{second}), stages(15, nil), Options{}).
		Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, res.Accepted, 1)
	got := res.Accepted[0]
	assert.Equal(t, "25-30 LPA", got.Salary)
	assert.False(t, got.SalaryEstimated)
	require.NotNil(t, got.SalaryLPA)
	assert.Equal(t, 25.0, *got.SalaryLPA)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Unique)
}

func TestRun_SeniorRoleRejected(t *testing.T) {
	src := &fakeSource{name: "hh", jobs: []model.RawJob{{
		Title: "Senior Data Analyst", Company: "Amazon", URL: "u1",
		SalaryText: "40 LPA", Description: "0-2 years of experience",
	}}}

	res, err := newOrch(tiers([]model.Source{src}, nil), stages(15, nil), Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.RejectReasons[filter.ReasonSeniorRole])
}

func TestRun_EstimatorSaysBelowFloor(t *testing.T) {
	est := &fakeEstimator{est: model.SalaryEstimate{PaysAbove: false, Range: "6-8 LPA", Confidence: model.ConfidenceHigh}}
	src := &fakeSource{name: "hh", jobs: []model.RawJob{raw("Data Analyst", "Tiny Startup Labs", "u1", "")}}

	res, err := newOrch(tiers([]model.Source{src}, nil), stages(15, est), Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 1, res.RejectReasons[filter.ReasonEstimatedBelow])
	assert.EqualValues(t, 1, est.calls.Load())
}

func TestRun_CrossRunDuplicatesSkipEstimator(t *testing.T) {
	est := &fakeEstimator{est: model.SalaryEstimate{PaysAbove: true, MinLPA: 20, Confidence: model.ConfidenceHigh}}
	src := &fakeSource{name: "hh", jobs: []model.RawJob{
		raw("Data Analyst", "Tiny Startup Labs", "seen-before", ""),
		raw("Product Analyst", "Tiny Startup Labs", "", ""),
	}}
	existing := map[string]struct{}{"seen-before": {}, "sig:productanalysttinystartuplabs": {}}

	res, err := newOrch(tiers([]model.Source{src}, nil), stages(15, est), Options{}).Run(context.Background(), nil, existing)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 2, res.CrossRunDuplicates)
	assert.Zero(t, est.calls.Load())
}

func TestRun_SinceOnlyForCapableSources(t *testing.T) {
	capable := &fakeSource{name: "hh", since: true}
	plain := &fakeSource{name: "careers"}
	since := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	res, err := newOrch(tiers([]model.Source{capable, plain}, nil), stages(15, nil), Options{}).
		Run(context.Background(), &since, nil)
	require.NoError(t, err)

	assert.Equal(t, &since, capable.gotSince.Load())
	assert.Nil(t, plain.gotSince.Load())
	assert.True(t, res.Statuses[0].SinceApplied)
	assert.False(t, res.Statuses[1].SinceApplied)
}

func TestRun_RelevanceFilterRunsBeforeDedupe(t *testing.T) {
	src := &fakeSource{name: "hh", jobs: []model.RawJob{
		raw("Data Analyst", "Acme", "u1", "12 LPA"),
		raw("Sales Executive", "Acme", "u2", "12 LPA"),
	}}
	st := stages(10, nil)
	st.Relevance = filter.NewKeywordFilter([]string{"analyst"}, nil, nil)

	res, err := newOrch(tiers([]model.Source{src}, nil), st, Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Irrelevant)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "u1", res.Accepted[0].URL)
}

func TestRun_AcceptedSortedByPriority(t *testing.T) {
	src := &fakeSource{name: "hh", jobs: []model.RawJob{
		raw("Data Analyst", "Acme", "u1", "12 LPA"),
		raw("Data Analyst", "Google", "u2", "32 LPA"),
		raw("Business Analyst", "Globex", "u3", "26 LPA"),
	}}

	res, err := newOrch(tiers([]model.Source{src}, nil), stages(10, nil), Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 3)
	assert.Equal(t, "u2", res.Accepted[0].URL)
	assert.Equal(t, model.PriorityHigh, res.Accepted[0].Priority)
	assert.Equal(t, model.PriorityLow, res.Accepted[1].Priority)
	assert.Equal(t, "u1", res.Accepted[1].URL)
	assert.Equal(t, "u3", res.Accepted[2].URL)
}

func TestRun_CancelledBeforeStartSkipsEverything(t *testing.T) {
	a := &fakeSource{name: "a"}
	b := &fakeSource{name: "b"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newOrch(tiers([]model.Source{a}, []model.Source{b}), stages(10, nil), Options{Concurrency: 2}).Run(ctx, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	for _, st := range res.Statuses {
		assert.Equal(t, model.SourceSkipped, st.State)
	}
	assert.Zero(t, a.calls.Load())
	assert.Zero(t, b.calls.Load())
	assert.True(t, a.closed.Load())
}

func TestRun_CancelDoesNotKillInFlightSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inFlight := &fakeSource{name: "slow", delay: 80 * time.Millisecond, onStarted: cancel,
		jobs: []model.RawJob{raw("Data Analyst", "Acme", "u1", "12 LPA")}}
	next := &fakeSource{name: "next"}

	res, err := newOrch(tiers([]model.Source{inFlight, next}, nil), stages(10, nil), Options{InterSourceDelay: time.Millisecond}).
		Run(ctx, nil, nil)
	require.ErrorIs(t, err, context.Canceled)

	assert.True(t, inFlight.ctxAlive.Load(), "in-flight source must not see run cancellation")
	assert.Equal(t, model.SourceOK, res.Statuses[0].State)
	assert.Equal(t, model.SourceSkipped, res.Statuses[1].State)
	assert.Zero(t, next.calls.Load())
}

func TestRun_SourceTimeoutIsFailure(t *testing.T) {
	hung := &fakeSource{name: "hung", delay: time.Second}
	res, err := newOrch(tiers([]model.Source{hung}, nil), stages(10, nil), Options{SourceTimeout: 20 * time.Millisecond}).
		Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SourceFailed, res.Statuses[0].State)
	assert.True(t, res.AllSourcesFailed())
}

func TestRun_SourceIgnoringContextIsAbandoned(t *testing.T) {
	wedged := &fakeSource{name: "wedged", delay: 2 * time.Second, ignoreCtx: true,
		jobs: []model.RawJob{raw("Data Analyst", "Acme", "https://acme/1", "")}}
	ok := &fakeSource{name: "ok", jobs: []model.RawJob{raw("Data Analyst", "Beta", "https://beta/1", "20 LPA")}}

	start := time.Now()
	res, err := newOrch(tiers([]model.Source{wedged, ok}, nil), stages(10, nil), Options{SourceTimeout: 100 * time.Millisecond}).
		Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "run must not wait for the wedged source")

	require.Len(t, res.Statuses, 2)
	assert.Equal(t, model.SourceFailed, res.Statuses[0].State)
	assert.Contains(t, res.Statuses[0].Err, context.DeadlineExceeded.Error())
	assert.Less(t, res.Statuses[0].Duration, time.Second)
	assert.Equal(t, model.SourceOK, res.Statuses[1].State)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "Beta", res.Accepted[0].Company)

	assert.False(t, wedged.closed.Load(), "closed only after Fetch returns")
	assert.Eventually(t, wedged.closed.Load, 3*time.Second, 20*time.Millisecond)
}

func TestRun_GenericTitlesWithoutURLAreKeptApart(t *testing.T) {
	pune := raw("BA", "Acme", "", "20 LPA")
	pune.Location = "Pune"
	mumbai := raw("BA", "Acme", "", "20 LPA")
	mumbai.Location = "Mumbai"
	repost := pune

	src := &fakeSource{name: "hh", jobs: []model.RawJob{pune, mumbai, repost}}
	res, err := newOrch(tiers([]model.Source{src}, nil), stages(10, nil), Options{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, res.Accepted, 2)
	assert.NotEqual(t, res.Accepted[0].Key, res.Accepted[1].Key)
	assert.Equal(t, 1, res.SameRunDuplicates, "the exact repost is counted, not silently lost")
	assert.Zero(t, res.Rejected)
}
