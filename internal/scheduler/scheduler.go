package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is the work done on each tick.
type JobFunc func(ctx context.Context) error

type job struct {
	name   string
	spec   string
	runNow bool
	fn     JobFunc
	mu     sync.Mutex // held while the job runs; overlapping ticks are skipped
}

// Scheduler runs named jobs on cron schedules until its context is
// cancelled. A job never overlaps with itself.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []*job
	logger *slog.Logger
}

// New creates a Scheduler. Schedules use the standard five-field cron syntax
// plus descriptors like "@every 2h".
func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl)),
		logger: logger,
	}
}

// Add registers fn under name. When runNow is set the job also runs once as
// soon as Run starts.
func (s *Scheduler) Add(name, spec string, runNow bool, fn JobFunc) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.jobs = append(s.jobs, &job{name: name, spec: spec, runNow: runNow, fn: fn})
	return nil
}

// Run starts the schedule. It returns nil once ctx is cancelled and any
// running job has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	names := make(map[cron.EntryID]string, len(s.jobs))
	for _, j := range s.jobs {
		id, err := s.cron.AddFunc(j.spec, func() { s.execute(ctx, j) })
		if err != nil {
			return fmt.Errorf("scheduling %s: %w", j.name, err)
		}
		names[id] = j.name
	}

	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("job scheduled", "job", names[e.ID], "next", e.Next.Format(time.RFC3339))
	}

	for _, j := range s.jobs {
		if j.runNow && ctx.Err() == nil {
			s.execute(ctx, j)
		}
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) execute(ctx context.Context, j *job) {
	if ctx.Err() != nil {
		return
	}
	if !j.mu.TryLock() {
		s.logger.Warn("previous run still in progress, skipping tick", "job", j.name)
		return
	}
	defer j.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("scheduled job panicked", "job", j.name, "panic", p)
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", time.Since(start))
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
