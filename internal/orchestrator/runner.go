package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobscout/internal/metrics"
	"github.com/amishk599/jobscout/internal/model"
)

// ErrStorage marks failures of the job store or the watermark store. They
// abort the run before the watermark moves.
var ErrStorage = errors.New("storage failure")

// RunnerOptions tunes watermark handling.
type RunnerOptions struct {
	// AdvanceOnTotalFailure moves the watermark even when every source
	// failed, so a permanently broken source cannot grow the window forever.
	AdvanceOnTotalFailure bool
	// DryRun skips the watermark write. Pair it with a NopStore.
	DryRun bool
}

// Runner wraps an Orchestrator with the persistence steps of a run.
type Runner struct {
	orch      *Orchestrator
	storage   model.Storage
	watermark model.WatermarkStore
	notifier  model.Notifier
	opts      RunnerOptions
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewRunner creates a Runner. notifier and m may be nil.
func NewRunner(orch *Orchestrator, storage model.Storage, wm model.WatermarkStore, notifier model.Notifier, opts RunnerOptions, m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		orch:      orch,
		storage:   storage,
		watermark: wm,
		notifier:  notifier,
		opts:      opts,
		now:       time.Now,
		metrics:   m,
		logger:    logger,
	}
}

// RunOnce performs a single run: read the watermark, load existing keys, run
// the pipeline, append accepted jobs, notify and finally advance the
// watermark to the run's start time.
func (r *Runner) RunOnce(ctx context.Context) (rep Report, err error) {
	startedAt := r.now()
	defer func() {
		rep.FinishedAt = r.now()
		r.metrics.ObserveRun(outcome(err), rep.FinishedAt.Sub(startedAt), rep.WatermarkAdvanced)
	}()

	wm, err := r.watermark.Read(ctx)
	if err != nil {
		return Report{StartedAt: startedAt}, fmt.Errorf("%w: reading watermark: %w", ErrStorage, err)
	}
	rep = newReport(startedAt, wm.LastSuccessfulRunAt, r.opts.DryRun)
	logger := r.logger.With("run_id", rep.RunID)

	if wm.LastSuccessfulRunAt == nil {
		logger.Info("starting run", "since", "first run")
	} else {
		logger.Info("starting run", "since", wm.LastSuccessfulRunAt.Format(time.RFC3339))
	}

	existing, err := r.storage.ExistingKeys(ctx)
	if err != nil {
		return rep, fmt.Errorf("%w: loading existing keys: %w", ErrStorage, err)
	}

	res, err := r.orch.Run(ctx, wm.LastSuccessfulRunAt, existing)
	rep.Result = res
	if err != nil {
		logger.Warn("run cancelled, watermark unchanged", "error", err)
		return rep, err
	}

	if err := r.storage.Append(ctx, res.Accepted); err != nil {
		return rep, fmt.Errorf("%w: appending %d jobs: %w", ErrStorage, len(res.Accepted), err)
	}

	if r.notifier != nil && len(res.Accepted) > 0 {
		if err := r.notifier.Notify(res.Accepted); err != nil {
			logger.Error("notification failed", "error", err)
		}
	}

	switch {
	case r.opts.DryRun:
		logger.Info("dry run, watermark unchanged")
	case res.AllSourcesFailed() && !r.opts.AdvanceOnTotalFailure:
		logger.Warn("every source failed, watermark unchanged", "sources", len(res.Statuses))
	default:
		if res.AllSourcesFailed() {
			logger.Warn("every source failed, advancing watermark anyway", "sources", len(res.Statuses))
		}
		if err := r.watermark.Write(ctx, startedAt, len(res.Accepted)); err != nil {
			return rep, fmt.Errorf("%w: writing watermark: %w", ErrStorage, err)
		}
		rep.WatermarkAdvanced = true
	}

	logger.Info("run complete",
		"accepted", len(res.Accepted),
		"rejected", res.Rejected,
		"failed_sources", len(rep.FailedSources()),
		"watermark_advanced", rep.WatermarkAdvanced,
	)
	return rep, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
