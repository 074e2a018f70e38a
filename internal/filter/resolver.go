package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// UnresolvedPolicy decides what happens to a job whose salary could not be
// resolved by any means.
type UnresolvedPolicy string

const (
	UnresolvedInclude UnresolvedPolicy = "include"
	UnresolvedExclude UnresolvedPolicy = "exclude"
)

// ResolverConfig configures a SalaryResolver.
type ResolverConfig struct {
	FloorLPA     float64
	Role         string // used when a job carries no search role
	OnUnresolved UnresolvedPolicy
	Timeout      time.Duration // per estimator call
}

// SalaryResolver resolves the salary of accepted jobs: stated salary first,
// then the static company table, then the estimator.
type SalaryResolver struct {
	cfg       ResolverConfig
	table     *SalaryTable
	estimator model.SalaryEstimator
	logger    *slog.Logger
}

// NewSalaryResolver returns a resolver. estimator may be nil, in which case
// unknown companies are always unresolved.
func NewSalaryResolver(cfg ResolverConfig, table *SalaryTable, estimator model.SalaryEstimator, logger *slog.Logger) *SalaryResolver {
	if cfg.OnUnresolved == "" {
		cfg.OnUnresolved = UnresolvedExclude
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if table == nil {
		table = NewSalaryTable(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SalaryResolver{cfg: cfg, table: table, estimator: estimator, logger: logger}
}

// Resolve returns the updated verdict for an accepted job together with the
// salary text to display. Rejected verdicts are returned unchanged.
func (r *SalaryResolver) Resolve(ctx context.Context, job model.Job, v model.Verdict) (model.Verdict, string) {
	if !v.Accepted {
		return v, job.SalaryText
	}

	if SalaryStated(job.SalaryText) {
		s, ok := ParseSalary(job.SalaryText)
		if !ok {
			// Stated but free-form ("Competitive"); keep it for a human to read.
			return v, job.SalaryText
		}
		return r.compare(v, s.MinLPA, false), job.SalaryText
	}

	// Salaries are often buried in the description.
	if s, ok := ParseSalary(job.Description); ok {
		return r.compare(v, s.MinLPA, false), s.Text
	}

	if known, ok := r.table.Lookup(job.Company); ok {
		return r.compare(v, known.LPA, true), fmt.Sprintf("Est. %s LPA", formatLPA(known.LPA))
	}

	return r.estimate(ctx, job, v)
}

func (r *SalaryResolver) compare(v model.Verdict, minLPA float64, estimated bool) model.Verdict {
	v.SalaryLPA = &minLPA
	v.SalaryEstimated = estimated
	if minLPA < r.cfg.FloorLPA {
		v.Accepted = false
		v.Reason = ReasonBelowFloor
	}
	return v
}

func (r *SalaryResolver) estimate(ctx context.Context, job model.Job, v model.Verdict) (model.Verdict, string) {
	role := job.SearchRole
	if strings.TrimSpace(role) == "" {
		role = r.cfg.Role
	}

	est, err := r.callEstimator(ctx, job.Company, role)
	if err != nil {
		r.logger.Debug("salary estimate unavailable", "company", job.Company, "error", err)
		return r.unresolved(v)
	}

	switch {
	case !est.PaysAbove:
		v.Accepted = false
		v.Reason = ReasonEstimatedBelow
		return v, est.Range
	case est.Confidence == model.ConfidenceLow:
		return r.unresolved(v)
	case est.MinLPA < r.cfg.FloorLPA:
		// "pays above" with a minimum under the floor contradicts itself.
		r.logger.Debug("inconsistent salary estimate", "company", job.Company, "min_lpa", est.MinLPA, "range", est.Range)
		return r.unresolved(v)
	}

	minLPA := est.MinLPA
	v.SalaryLPA = &minLPA
	v.SalaryEstimated = true
	return v, fmt.Sprintf("Est. %s LPA (AI)", formatLPA(minLPA))
}

// callEstimator bounds the estimator by its own timeout and turns a panic or
// missing estimator into an error.
func (r *SalaryResolver) callEstimator(ctx context.Context, company, role string) (est model.SalaryEstimate, err error) {
	if r.estimator == nil {
		return model.SalaryEstimate{}, fmt.Errorf("no salary estimator configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("salary estimator panic: %v", p)
		}
	}()
	return r.estimator.Estimate(ctx, company, role, r.cfg.FloorLPA)
}

func (r *SalaryResolver) unresolved(v model.Verdict) (model.Verdict, string) {
	if r.cfg.OnUnresolved == UnresolvedInclude {
		floor := r.cfg.FloorLPA
		v.SalaryLPA = &floor
		v.SalaryEstimated = true
		return v, fmt.Sprintf("Est. %s+ LPA", formatLPA(floor))
	}
	v.Accepted = false
	v.Reason = ReasonUnresolved
	return v, ""
}
