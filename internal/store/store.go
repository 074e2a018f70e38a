// Package store holds the persistent job stores used for cross-run
// deduplication and review.
package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Backend is a job store the CLI and scheduler can drive.
type Backend interface {
	model.Storage
	// PruneReviewed deletes rows the user has marked reviewed and returns
	// how many were removed.
	PruneReviewed(ctx context.Context) (int, error)
	// MarkReviewed flags the rows with the given keys as reviewed.
	MarkReviewed(ctx context.Context, keys []string) (int, error)
	Close() error
}

// Cleaner is implemented by stores that can drop rows by age.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)
}

// columns is the shared row layout of the SQLite table and the spreadsheet.
var columns = []string{
	"Key", "URL", "Title", "Company", "Location", "Salary", "Salary Estimated",
	"Portal", "Posted At", "Found At", "Priority", "Reason", "Reviewed",
}

const (
	colKey      = 0
	colReviewed = 12
)

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// row renders a job in column order.
func row(j model.AnnotatedJob) []any {
	return []any{
		j.Key,
		j.URL,
		j.Title,
		j.Company,
		j.Location,
		j.Salary,
		j.SalaryEstimated,
		j.Portal,
		formatTime(j.PostedAt),
		formatTime(j.FoundAt),
		string(j.Priority),
		j.Reason,
		false,
	}
}

// truthy reports whether a hand-edited Reviewed cell means "yes".
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "x", "y", "yes", "done", "✓", "✔":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
