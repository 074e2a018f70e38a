package orchestrator

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/amishk599/jobscout/internal/model"
)

// Report is the structured summary of one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Since      *time.Time
	DryRun     bool
	Result

	WatermarkAdvanced bool
}

// ReasonCount is a rejection reason with its count.
type ReasonCount struct {
	Reason string
	Count  int
}

func newReport(startedAt time.Time, since *time.Time, dryRun bool) Report {
	return Report{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Since:     since,
		DryRun:    dryRun,
	}
}

// TopRejectReasons returns up to n reasons, most frequent first. Ties are
// ordered by reason.
func (r Report) TopRejectReasons(n int) []ReasonCount {
	counts := lo.MapToSlice(r.RejectReasons, func(reason string, count int) ReasonCount {
		return ReasonCount{Reason: reason, Count: count}
	})
	slices.SortFunc(counts, func(a, b ReasonCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// SourceCounts tallies sources by state.
func (r Report) SourceCounts() map[model.SourceState]int {
	return lo.CountValuesBy(r.Statuses, func(st model.SourceStatus) model.SourceState {
		return st.State
	})
}

// FailedSources returns the names of failed sources.
func (r Report) FailedSources() []string {
	return lo.FilterMap(r.Statuses, func(st model.SourceStatus, _ int) (string, bool) {
		return st.Name, st.State == model.SourceFailed
	})
}
