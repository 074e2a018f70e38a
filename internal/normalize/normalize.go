// Package normalize turns free-form "posted" strings into absolute times.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// absoluteLayouts are tried before the relative rules.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
}

type rule struct {
	name  string
	apply func(text string, capturedAt time.Time) (time.Time, bool)
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{"hours", unitsAgo(`(\d+)\s*(?:hours?|hrs?)\b`, time.Hour)},
	{"minutes", unitsAgo(`(\d+)\s*(?:minutes?|mins?)\b`, time.Minute)},
	{"days", unitsAgo(`(\d+)\s*days?\b`, 24*time.Hour)},
	{"weeks", unitsAgo(`(\d+)\s*(?:weeks?|wks?)\b`, 7*24*time.Hour)},
	{"recent", keywords([]string{"just", "today", "recent"}, 2*time.Hour)},
	{"yesterday", keywords([]string{"yesterday"}, 24*time.Hour)},
	{"month", keywords([]string{"30+", "month"}, 30*24*time.Hour)},
}

func unitsAgo(pattern string, unit time.Duration) func(string, time.Time) (time.Time, bool) {
	re := regexp.MustCompile(pattern)
	return func(text string, capturedAt time.Time) (time.Time, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return capturedAt.Add(-time.Duration(n) * unit), true
	}
}

func keywords(words []string, back time.Duration) func(string, time.Time) (time.Time, bool) {
	return func(text string, capturedAt time.Time) (time.Time, bool) {
		for _, w := range words {
			if strings.Contains(text, w) {
				return capturedAt.Add(-back), true
			}
		}
		return time.Time{}, false
	}
}

// PostedAt estimates when a job was posted from its free-form text and the
// time it was captured. The result is deterministic for a given input.
// Absolute times in the future are clamped to capturedAt.
func PostedAt(text string, capturedAt time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return morningOf(capturedAt)
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, text, capturedAt.Location()); err == nil {
			if t.After(capturedAt) {
				return capturedAt
			}
			return t
		}
	}

	lower := strings.ToLower(text)
	for _, r := range rules {
		if t, ok := r.apply(lower, capturedAt); ok {
			return t
		}
	}
	return morningOf(capturedAt)
}

// morningOf is 09:00 on the same calendar day in capturedAt's location.
func morningOf(capturedAt time.Time) time.Time {
	y, m, d := capturedAt.Date()
	return time.Date(y, m, d, 9, 0, 0, 0, capturedAt.Location())
}

// Records converts raw jobs captured at capturedAt into normalized jobs.
func Records(raw []model.RawJob, capturedAt time.Time) []model.Job {
	out := make([]model.Job, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Job{
			RawJob:   r,
			PostedAt: PostedAt(r.PostedText, capturedAt),
			FoundAt:  capturedAt,
		})
	}
	return out
}
