package notifier

import (
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes accepted jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per job. It never fails.
func (n *LogNotifier) Notify(jobs []model.AnnotatedJob) error {
	for _, j := range jobs {
		n.logger.Info("new job",
			"priority", j.Priority,
			"company", j.Company,
			"title", j.Title,
			"location", j.Location,
			"salary", j.Salary,
			"salary_estimated", j.SalaryEstimated,
			"portal", j.Portal,
			"posted_at", j.PostedAt,
			"url", j.URL,
		)
	}
	return nil
}
