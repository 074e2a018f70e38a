package notifier

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

func TestLogNotifier_LogsEachJob(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.Notify([]model.AnnotatedJob{
		sampleJob("Data Analyst", "Acme", model.PriorityHigh),
		sampleJob("Business Analyst", "Globex", model.PriorityLow),
	}))

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("new job")))
	assert.Contains(t, out, "company=Acme")
	assert.Contains(t, out, "priority=HIGH")
	assert.Contains(t, out, `title="Business Analyst"`)
}
