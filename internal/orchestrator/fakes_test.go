package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amishk599/jobscout/internal/filter"
	"github.com/amishk599/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource returns fixed records after an optional delay.
type fakeSource struct {
	name      string
	jobs      []model.RawJob
	err       error
	panicMsg  string
	delay     time.Duration
	ignoreCtx bool // sleep through delay even after ctx is done
	since     bool
	calls     atomic.Int32
	closed    atomic.Bool
	gotSince  atomic.Pointer[time.Time]
	ctxAlive  atomic.Bool // ctx was still live when the fetch finished
	onStarted func()
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) SupportsSince() bool { return s.since }

func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	s.calls.Add(1)
	s.gotSince.Store(since)
	if s.onStarted != nil {
		s.onStarted()
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 && s.ignoreCtx {
		time.Sleep(s.delay)
	} else if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	s.ctxAlive.Store(ctx.Err() == nil)
	return s.jobs, s.err
}

// memStorage is an in-memory model.Storage.
type memStorage struct {
	mu        sync.Mutex
	keys      map[string]struct{}
	appended  []model.AnnotatedJob
	appendErr error
	keysErr   error
}

func newMemStorage(keys ...string) *memStorage {
	s := &memStorage{keys: make(map[string]struct{})}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

func (s *memStorage) ExistingKeys(context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	out := make(map[string]struct{}, len(s.keys))
	for k := range s.keys {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *memStorage) Append(_ context.Context, jobs []model.AnnotatedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	for _, j := range jobs {
		s.keys[j.Key] = struct{}{}
	}
	s.appended = append(s.appended, jobs...)
	return nil
}

// memWatermark is an in-memory model.WatermarkStore with the same
// monotonic rule as the file store.
type memWatermark struct {
	at       *time.Time
	jobs     int
	writes   int
	readErr  error
	writeErr error
}

func (w *memWatermark) Read(context.Context) (model.Watermark, error) {
	if w.readErr != nil {
		return model.Watermark{}, w.readErr
	}
	return model.Watermark{LastSuccessfulRunAt: w.at, JobsFound: w.jobs}, nil
}

func (w *memWatermark) Write(_ context.Context, at time.Time, jobsFound int) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.writes++
	if w.at != nil && at.Before(*w.at) {
		return nil
	}
	w.at = &at
	w.jobs = jobsFound
	return nil
}

type recordingNotifier struct {
	batches [][]model.AnnotatedJob
	err     error
}

func (n *recordingNotifier) Notify(jobs []model.AnnotatedJob) error {
	n.batches = append(n.batches, jobs)
	return n.err
}

// fakeEstimator answers every company the same way.
type fakeEstimator struct {
	est   model.SalaryEstimate
	err   error
	calls atomic.Int32
}

func (e *fakeEstimator) Estimate(context.Context, string, string, float64) (model.SalaryEstimate, error) {
	e.calls.Add(1)
	return e.est, e.err
}

var errBoom = errors.New("boom")

func stages(floor float64, est model.SalaryEstimator) Stages {
	return Stages{
		Eligibility: filter.NewPolicy(filter.DefaultEligibility()),
		Salary: filter.NewSalaryResolver(filter.ResolverConfig{
			FloorLPA: floor,
			Role:     "Data Analyst",
			Timeout:  time.Second,
		}, nil, est, discardLogger()),
	}
}

func tiers(portals []model.Source, companies []model.Source) []Tier {
	return []Tier{{Name: "portals", Sources: portals}, {Name: "companies", Sources: companies}}
}

func raw(title, company, url, salary string) model.RawJob {
	return model.RawJob{Title: title, Company: company, URL: url, SalaryText: salary, PostedText: "2 hours ago"}
}
