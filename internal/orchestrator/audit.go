package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobscout/internal/dedupe"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/normalize"
)

// Audit outcomes for records that never reach the eligibility policy.
const (
	ReasonIrrelevant = "Not relevant to the search"
	ReasonDuplicate  = "Duplicate within source"
)

// AuditedJob is one record of an audited source together with the verdict
// the pipeline would reach for it.
type AuditedJob struct {
	model.Job
	Verdict  model.Verdict
	Salary   string
	Key      string
	Priority model.Priority
}

// Audit fetches a single source and runs every record through the stage
// chain without touching storage, so the caller can see why each record was
// kept or dropped. The salary stage runs only for records the policy
// accepts.
func (o *Orchestrator) Audit(ctx context.Context, src model.Source, since *time.Time) (model.SourceStatus, []AuditedJob, error) {
	status, raws := o.fetchOne(ctx, "audit", src, since)
	if status.State == model.SourceFailed {
		return status, nil, fmt.Errorf("fetching %s: %s", status.Name, status.Err)
	}

	jobs := normalize.Records(raws, o.now())
	dd := dedupe.New()
	out := make([]AuditedJob, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return status, out, fmt.Errorf("audit cancelled: %w", err)
		}

		a := AuditedJob{Job: job}
		switch {
		case o.stages.Relevance != nil && !o.stages.Relevance.Match(job):
			a.Verdict = model.Verdict{Reason: ReasonIrrelevant}
		case !dd.Keep(job):
			a.Verdict = model.Verdict{Reason: ReasonDuplicate}
		default:
			a.Verdict = o.stages.Eligibility.Evaluate(job)
			if a.Verdict.Accepted {
				a.Verdict, a.Salary = o.stages.Salary.Resolve(ctx, job, a.Verdict)
			}
			if a.Verdict.Accepted {
				ann := o.stages.Scorer.Annotate(job, a.Verdict, a.Salary)
				a.Key, a.Priority = ann.Key, ann.Priority
			}
		}
		out = append(out, a)
	}
	return status, out, nil
}

// Source returns the configured source with the given name.
func (o *Orchestrator) Source(name string) (model.Source, bool) {
	for _, t := range o.tiers {
		for _, s := range t.Sources {
			if s.Name() == name {
				return s, true
			}
		}
	}
	return nil, false
}
