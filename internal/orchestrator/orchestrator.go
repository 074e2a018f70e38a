// Package orchestrator drives one ingestion run: tiered source fan-out,
// normalization, deduplication, eligibility, cross-run filtering, salary
// resolution and ranking.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobscout/internal/dedupe"
	"github.com/amishk599/jobscout/internal/fingerprint"
	"github.com/amishk599/jobscout/internal/metrics"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/normalize"
	"github.com/amishk599/jobscout/internal/rank"
)

const defaultSourceTimeout = 2 * time.Minute

// Tier is an ordered group of sources fetched before the next tier.
type Tier struct {
	Name    string
	Sources []model.Source
}

// Evaluator decides experience eligibility.
type Evaluator interface {
	Evaluate(job model.Job) model.Verdict
}

// SalaryResolver resolves the salary of an accepted job and returns the
// display text.
type SalaryResolver interface {
	Resolve(ctx context.Context, job model.Job, v model.Verdict) (model.Verdict, string)
}

// Stages are the per-record pipeline steps. Relevance may be nil.
type Stages struct {
	Relevance   model.JobFilter
	Eligibility Evaluator
	Salary      SalaryResolver
	Scorer      *rank.Scorer
}

// Options tunes fetching.
type Options struct {
	Concurrency      int // <= 1 fetches sources one after another
	SourceTimeout    time.Duration
	InterSourceDelay time.Duration // sequential mode only
}

// Result is the outcome of Orchestrator.Run.
type Result struct {
	Statuses           []model.SourceStatus
	Fetched            int
	Irrelevant         int
	Unique             int
	Rejected           int
	CrossRunDuplicates int
	SameRunDuplicates  int // passed dedupe but shared a storage key with an accepted job
	RejectReasons      map[string]int
	Accepted           []model.AnnotatedJob
}

// AllSourcesFailed reports whether at least one source ran and none
// succeeded.
func (r Result) AllSourcesFailed() bool {
	if len(r.Statuses) == 0 {
		return false
	}
	for _, st := range r.Statuses {
		if st.State != model.SourceFailed {
			return false
		}
	}
	return true
}

// Orchestrator owns the tier list and the stage chain. It holds no state
// between runs; every run builds its own Deduplicator.
type Orchestrator struct {
	tiers   []Tier
	stages  Stages
	opts    Options
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Orchestrator. m may be nil.
func New(tiers []Tier, stages Stages, opts Options, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = defaultSourceTimeout
	}
	if stages.Scorer == nil {
		stages.Scorer = rank.NewScorer(nil)
	}
	return &Orchestrator{
		tiers:   tiers,
		stages:  stages,
		opts:    opts,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// Tiers returns the configured tiers.
func (o *Orchestrator) Tiers() []Tier { return o.tiers }

// Run fetches every tier and pushes the records through the stage chain.
// existingKeys holds the storage keys of earlier runs. Source failures are
// reported in the result; the only error is cancellation of ctx.
func (o *Orchestrator) Run(ctx context.Context, since *time.Time, existingKeys map[string]struct{}) (Result, error) {
	res := Result{RejectReasons: make(map[string]int)}
	capturedAt := o.now()

	var raws []model.RawJob
	for _, tier := range o.tiers {
		statuses, records := o.fetchTier(ctx, tier, since)
		res.Statuses = append(res.Statuses, statuses...)
		for _, r := range records {
			raws = append(raws, r...)
		}
	}
	res.Fetched = len(raws)
	o.metrics.ObserveStage("fetched", res.Fetched)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run cancelled after fetch: %w", err)
	}

	jobs := normalize.Records(raws, capturedAt)

	if o.stages.Relevance != nil {
		relevant := jobs[:0]
		for _, j := range jobs {
			if o.stages.Relevance.Match(j) {
				relevant = append(relevant, j)
			}
		}
		res.Irrelevant = len(jobs) - len(relevant)
		jobs = relevant
	}

	jobs = dedupe.New().Dedupe(jobs)
	res.Unique = len(jobs)
	o.metrics.ObserveStage("unique", res.Unique)

	taken := make(map[string]struct{})
	for _, job := range jobs {
		v := o.stages.Eligibility.Evaluate(job)
		if !v.Accepted {
			o.reject(&res, v.Reason)
			continue
		}

		key := fingerprint.Key(job)
		if _, ok := existingKeys[key]; ok {
			res.CrossRunDuplicates++
			continue
		}
		if _, ok := taken[key]; ok {
			res.SameRunDuplicates++
			o.logger.Debug("dropping job with an already accepted key", "key", key, "title", job.Title)
			continue
		}

		v, salary := o.stages.Salary.Resolve(ctx, job, v)
		if !v.Accepted {
			o.reject(&res, v.Reason)
			continue
		}
		if v.SalaryEstimated {
			o.metrics.ObserveEstimate("estimated")
		}

		taken[key] = struct{}{}
		res.Accepted = append(res.Accepted, o.stages.Scorer.Annotate(job, v, salary))
	}

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run cancelled during filtering: %w", err)
	}

	rank.Sort(res.Accepted)
	o.metrics.ObserveStage("cross_run_duplicate", res.CrossRunDuplicates)
	o.metrics.ObserveStage("accepted", len(res.Accepted))

	o.logger.Info("pipeline finished",
		"fetched", res.Fetched,
		"irrelevant", res.Irrelevant,
		"unique", res.Unique,
		"rejected", res.Rejected,
		"cross_run_duplicates", res.CrossRunDuplicates,
		"same_run_duplicates", res.SameRunDuplicates,
		"accepted", len(res.Accepted),
	)
	return res, nil
}

func (o *Orchestrator) reject(res *Result, reason string) {
	res.Rejected++
	res.RejectReasons[reason]++
	o.metrics.ObserveRejection(reason)
}
