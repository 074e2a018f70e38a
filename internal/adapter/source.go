package adapter

import (
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var (
	blockTag = regexp.MustCompile(`(?i)<\s*/?\s*(p|br|li|ul|ol|div|h[1-6]|tr)\b[^>]*>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

// board holds what every company career-page source needs.
type board struct {
	name        string // unique source name, e.g. "greenhouse:stripe"
	companyName string
	role        string
	baseURL     string
	client      *http.Client
}

// Name returns the configured source name.
func (b *board) Name() string { return b.name }

// Close is a no-op; the HTTP client is shared and owned by the caller.
func (b *board) Close() error { return nil }

// SupportsSince reports that the board filters by posting time.
func (b *board) SupportsSince() bool { return true }

// postedAfter reports whether a posting at t should be returned for since.
// Postings without a known time are always returned.
func postedAfter(t *time.Time, since *time.Time) bool {
	if since == nil || t == nil {
		return true
	}
	return t.After(*since)
}

func parseRFC3339(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func withDefault(baseURL, def string) string {
	if baseURL == "" {
		return def
	}
	return strings.TrimRight(baseURL, "/")
}

// extractText flattens an HTML fragment to one line of plain text. Content is
// unescaped before stripping because some boards double-encode their markup.
// Block-level tags become spaces so adjacent paragraphs don't run together.
func extractText(content string) string {
	s := html.UnescapeString(content)
	s = blockTag.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
