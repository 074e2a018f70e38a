package model

import (
	"context"
	"time"
)

// RawJob is a job listing as emitted by a source, before any normalization.
// Nothing about it is guaranteed unique; URL may be empty and PostedText may
// be relative ("2 hours ago"), absolute or absent.
type RawJob struct {
	Title       string
	Company     string
	Location    string
	SalaryText  string // free-form, "" or "Not mentioned" when absent
	Description string
	URL         string // direct apply link
	Portal      string // source name that produced the record
	PostedText  string
	SearchRole  string
}

// Job is a RawJob with resolved timestamps. Values are never mutated once
// produced by the normalizer.
type Job struct {
	RawJob
	PostedAt time.Time // always populated
	FoundAt  time.Time // wall-clock capture time
}

// Verdict is the eligibility decision attached to a job.
type Verdict struct {
	Accepted        bool
	Reason          string
	SalaryLPA       *float64 // resolved minimum salary in lakhs per annum
	SalaryEstimated bool
}

// Priority ranks accepted jobs for review.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank orders priorities, higher first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// AnnotatedJob is an accepted job ready for storage.
type AnnotatedJob struct {
	Job
	Verdict
	Key      string   // storage identity
	Salary   string   // display text: stated salary or "Est. N LPA"
	Priority Priority
}

// Watermark is the last successful run boundary.
type Watermark struct {
	LastSuccessfulRunAt *time.Time
	JobsFound           int
}

// SourceState is the outcome of a single source fetch.
type SourceState string

const (
	SourceOK      SourceState = "ok"
	SourceEmpty   SourceState = "empty"
	SourceFailed  SourceState = "failed"
	SourceSkipped SourceState = "skipped"
)

// SourceStatus reports how one source behaved during a run. It is used for
// observability only.
type SourceStatus struct {
	Name         string
	Tier         string
	State        SourceState
	Records      int
	Err          string
	Duration     time.Duration
	SinceApplied bool
}

// Source fetches job listings from one remote site. since is nil on the
// first run.
type Source interface {
	Name() string
	Fetch(ctx context.Context, since *time.Time) ([]RawJob, error)
	Close() error
}

// SinceFilter is implemented by sources that can restrict results to
// postings newer than since. Sources that don't implement it (or report
// false) are always called with a nil since.
type SinceFilter interface {
	SupportsSince() bool
}

// SupportsSince reports whether src declares the since capability.
func SupportsSince(src Source) bool {
	sf, ok := src.(SinceFilter)
	return ok && sf.SupportsSince()
}

// Storage is the persistent job store used for cross-run dedup.
type Storage interface {
	ExistingKeys(ctx context.Context) (map[string]struct{}, error)
	Append(ctx context.Context, jobs []AnnotatedJob) error
}

// WatermarkStore persists the single last-successful-run record.
type WatermarkStore interface {
	// Read returns a zero Watermark on first run or when the stored value is
	// unreadable garbage. Errors are reserved for I/O failures.
	Read(ctx context.Context) (Watermark, error)
	Write(ctx context.Context, at time.Time, jobsFound int) error
}

// Confidence of a salary estimate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// SalaryEstimate is the answer of a SalaryEstimator.
type SalaryEstimate struct {
	PaysAbove  bool
	Range      string // e.g. "18-24 LPA"
	MinLPA     float64
	Confidence Confidence
}

// SalaryEstimator guesses whether a company pays at least minLPA for a role.
type SalaryEstimator interface {
	Estimate(ctx context.Context, company, role string, minLPA float64) (SalaryEstimate, error)
}

// Notifier sends notifications for newly accepted jobs.
type Notifier interface {
	Notify(jobs []AnnotatedJob) error
}

// JobFilter decides whether a job is relevant to the configured search.
type JobFilter interface {
	Match(job Job) bool
}
