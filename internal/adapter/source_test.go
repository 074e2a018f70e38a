package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "  hello   world ", "hello world"},
		{"paragraphs", "<p>SQL</p><p>Python</p>", "SQL Python"},
		{"double encoded", "&lt;ul&gt;&lt;li&gt;Excel&lt;/li&gt;&lt;li&gt;Power BI&lt;/li&gt;&lt;/ul&gt;", "Excel Power BI"},
		{"inline tags", "<strong>Data</strong> <em>Analyst</em><br/>Pune", "Data Analyst Pune"},
		{"entities", "R&amp;D team", "R&D team"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractText(tt.in))
		})
	}
}

func TestPostedAfter(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := since.Add(-time.Hour)
	after := since.Add(time.Hour)

	assert.True(t, postedAfter(&after, &since))
	assert.False(t, postedAfter(&before, &since))
	assert.False(t, postedAfter(&since, &since))
	assert.True(t, postedAfter(nil, &since), "unknown posting time is kept")
	assert.True(t, postedAfter(&before, nil), "first run keeps everything")
}

func TestParseRFC3339(t *testing.T) {
	assert.Nil(t, parseRFC3339(""))
	assert.Nil(t, parseRFC3339("yesterday"))
	got := parseRFC3339("2026-03-01T10:00:00+05:30")
	if assert.NotNil(t, got) {
		assert.Equal(t, "2026-03-01T04:30:00Z", formatTime(got))
	}
	assert.Empty(t, formatTime(nil))
}
