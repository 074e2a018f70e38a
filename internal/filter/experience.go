package filter

import (
	"regexp"
	"strconv"
	"strings"
)

// Experience is a years-of-experience band extracted from free text.
type Experience struct {
	Min int
	Max int
}

var (
	expRange   = regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*(?:years?|yrs?)`)
	expSingle  = regexp.MustCompile(`(\d+)\+?\s*(?:years?|yrs?)`)
	expMinimum = regexp.MustCompile(`minimum\s+(\d+)\s+(?:years?|yrs?)`)
	expAtLeast = regexp.MustCompile(`at least\s+(\d+)\s+(?:years?|yrs?)`)
)

type experienceBand struct {
	re  *regexp.Regexp
	exp Experience
}

// Keyword bands are only consulted when no numeric pattern matched.
var experienceBands = []experienceBand{
	{regexp.MustCompile(`\b(?:freshers?|entry[ -]level|graduates?|trainees?)\b`), Experience{Min: 0, Max: 1}},
	{regexp.MustCompile(`\b(?:senior|lead|principal|architect)\b`), Experience{Min: 5, Max: 99}},
	{regexp.MustCompile(`\b(?:junior|associate)\b`), Experience{Min: 0, Max: 3}},
}

// ExtractExperience finds the experience requirement stated in text. The
// numeric patterns are tried in order before the keyword bands.
func ExtractExperience(text string) (Experience, bool) {
	if strings.TrimSpace(text) == "" {
		return Experience{}, false
	}
	text = strings.ToLower(text)

	if m := expRange.FindStringSubmatch(text); m != nil {
		return Experience{Min: atoi(m[1]), Max: atoi(m[2])}, true
	}
	for _, re := range []*regexp.Regexp{expSingle, expMinimum, expAtLeast} {
		if m := re.FindStringSubmatch(text); m != nil {
			n := atoi(m[1])
			return Experience{Min: n, Max: n}, true
		}
	}
	for _, b := range experienceBands {
		if b.re.MatchString(text) {
			return b.exp, true
		}
	}
	return Experience{}, false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
