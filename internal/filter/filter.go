package filter

import (
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// KeywordFilter keeps jobs whose title contains any of the title keywords,
// none of the excluded keywords, and whose location contains any of the
// location keywords. Matching is case-insensitive. Empty keyword lists are
// treated as "match all".
type KeywordFilter struct {
	titleKeywords []string
	excludes      []string
	locations     []string
}

// NewKeywordFilter returns a relevance filter for company-wide listings,
// which return every open role and need narrowing to the searched one.
func NewKeywordFilter(titleKeywords, excludes, locations []string) *KeywordFilter {
	return &KeywordFilter{
		titleKeywords: lowerAll(titleKeywords),
		excludes:      lowerAll(excludes),
		locations:     lowerAll(locations),
	}
}

// Match reports whether job is relevant.
func (f *KeywordFilter) Match(job model.Job) bool {
	if !f.MatchTitle(job) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(strings.ToLower(job.Location), f.locations) {
		return false
	}
	return true
}

// MatchTitle applies only the title rules.
func (f *KeywordFilter) MatchTitle(job model.Job) bool {
	title := strings.ToLower(job.Title)
	if containsAny(title, f.excludes) {
		return false
	}
	return len(f.titleKeywords) == 0 || containsAny(title, f.titleKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
