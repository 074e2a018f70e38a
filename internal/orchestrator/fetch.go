package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobscout/internal/model"
)

// fetchTier runs every source of a tier and returns one status and one
// record slice per source, in tier order regardless of completion order.
func (o *Orchestrator) fetchTier(ctx context.Context, tier Tier, since *time.Time) ([]model.SourceStatus, [][]model.RawJob) {
	statuses := make([]model.SourceStatus, len(tier.Sources))
	records := make([][]model.RawJob, len(tier.Sources))

	if o.opts.Concurrency <= 1 {
		for i, src := range tier.Sources {
			if i > 0 && !o.pause(ctx) {
				statuses[i] = o.skip(tier.Name, src)
				continue
			}
			if ctx.Err() != nil {
				statuses[i] = o.skip(tier.Name, src)
				continue
			}
			statuses[i], records[i] = o.fetchOne(ctx, tier.Name, src, since)
		}
		return statuses, records
	}

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, src := range tier.Sources {
		if ctx.Err() != nil {
			statuses[i] = o.skip(tier.Name, src)
			continue
		}
		g.Go(func() error {
			// may have waited for a free slot
			if ctx.Err() != nil {
				statuses[i] = o.skip(tier.Name, src)
				return nil
			}
			statuses[i], records[i] = o.fetchOne(ctx, tier.Name, src, since)
			return nil
		})
	}
	_ = g.Wait()
	return statuses, records
}

// pause waits the inter-source delay. It returns false if ctx was cancelled.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.opts.InterSourceDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(o.opts.InterSourceDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// fetchOne calls a single source under its own hard timeout. Cancelling
// the run does not interrupt a fetch already in flight. A source that
// ignores its context is abandoned at the deadline and counted as failed;
// it is closed once its Fetch finally returns.
func (o *Orchestrator) fetchOne(ctx context.Context, tierName string, src model.Source, since *time.Time) (status model.SourceStatus, jobs []model.RawJob) {
	status = model.SourceStatus{Name: src.Name(), Tier: tierName}

	var arg *time.Time
	if since != nil && model.SupportsSince(src) {
		arg = since
		status.SinceApplied = true
	}

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.SourceTimeout)
	defer cancel()

	type fetched struct {
		jobs []model.RawJob
		err  error
	}
	done := make(chan fetched, 1)
	start := time.Now()
	go func() {
		raws, err := safeFetch(fctx, src, arg)
		done <- fetched{raws, err}
	}()

	var (
		raws []model.RawJob
		err  error
	)
	select {
	case r := <-done:
		raws, err = r.jobs, r.err
		o.closeSource(src)
	case <-fctx.Done():
		err = fmt.Errorf("no response within %s: %w", o.opts.SourceTimeout, context.DeadlineExceeded)
		go func() {
			<-done
			o.closeSource(src)
		}()
	}
	status.Duration = time.Since(start)
	defer func() { o.metrics.ObserveSource(status) }()

	if err != nil {
		status.State = model.SourceFailed
		status.Err = err.Error()
		o.logger.Error("source failed", "source", status.Name, "tier", tierName, "error", err)
		return status, nil
	}

	for i := range raws {
		if raws[i].Portal == "" {
			raws[i].Portal = status.Name
		}
	}
	status.Records = len(raws)
	if len(raws) == 0 {
		status.State = model.SourceEmpty
	} else {
		status.State = model.SourceOK
	}
	o.logger.Info("fetched source",
		"source", status.Name,
		"tier", tierName,
		"records", len(raws),
		"since_applied", status.SinceApplied,
	)
	return status, raws
}

func (o *Orchestrator) closeSource(src model.Source) {
	if err := src.Close(); err != nil {
		o.logger.Warn("closing source", "source", src.Name(), "error", err)
	}
}

func safeFetch(ctx context.Context, src model.Source, since *time.Time) (jobs []model.RawJob, err error) {
	defer func() {
		if p := recover(); p != nil {
			jobs, err = nil, fmt.Errorf("source panic: %v", p)
		}
	}()
	return src.Fetch(ctx, since)
}

// skip records a source that was never started because the run was
// cancelled. It is still closed.
func (o *Orchestrator) skip(tierName string, src model.Source) model.SourceStatus {
	status := model.SourceStatus{Name: src.Name(), Tier: tierName, State: model.SourceSkipped}
	o.closeSource(src)
	o.metrics.ObserveSource(status)
	return status
}
