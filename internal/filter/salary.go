package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Salary is a stated salary converted to lakhs per annum.
type Salary struct {
	MinLPA float64
	MaxLPA float64
	Text   string // normalized display form, e.g. "20-25 LPA"
}

type salaryPattern struct {
	re    *regexp.Regexp
	parse func(m []string) (Salary, bool)
}

const (
	num      = `(\d+(?:\.\d+)?)`
	rupee    = `(?:₹|INR|Rs\.?)`
	perMonth = `\s*(?:/|per|a)\s*(?:month|mo)\b`
)

// Patterns are tried in order; the first match wins. Commas are stripped
// before matching, so "6,00,000" arrives as "600000".
var salaryPatterns = []salaryPattern{
	// 20-25 LPA, 20-25 Lakhs
	{regexp.MustCompile(`(?i)` + num + `\s*-\s*` + num + `\s*(?:LPA|Lakhs?|Lacs?|L\.?P\.?A\.?)`), rangeOf(lakhs)},
	// ₹20-25 Lakhs, INR 20-25 LPA
	{regexp.MustCompile(`(?i)` + rupee + `\s*` + num + `\s*-\s*` + num + `\s*(?:Lakhs?|Lacs?|LPA)`), rangeOf(lakhs)},
	// ₹5-8 L
	{regexp.MustCompile(`(?i)` + rupee + `\s*` + num + `\s*-\s*` + num + `\s*L\b`), rangeOf(lakhs)},
	// up to 30 LPA
	{regexp.MustCompile(`(?i)(?:up to|upto|max)\s*` + num + `\s*(?:LPA|Lakhs?|Lacs?)`), func(m []string) (Salary, bool) {
		n, ok := parseFloat(m[1])
		return Salary{MinLPA: n, MaxLPA: n, Text: fmt.Sprintf("Up to %s LPA", formatLPA(n))}, ok
	}},
	// 25 LPA
	{regexp.MustCompile(`(?i)(?:^|\s)` + num + `\s*(?:LPA|Lakhs?|Lacs?)(?:\s|$)`), single(lakhs)},
	// 50-70K/month
	{regexp.MustCompile(`(?i)` + rupee + `?\s*` + num + `\s*K?\s*-\s*` + rupee + `?\s*` + num + `\s*K` + perMonth), rangeOf(thousandsMonthly)},
	// ₹25000-35000 per month
	{regexp.MustCompile(`(?i)` + rupee + `?\s*(\d{4,6})\s*-\s*` + rupee + `?\s*(\d{4,6})` + perMonth), rangeOf(rupeesMonthly)},
	// ₹30000 per month
	{regexp.MustCompile(`(?i)` + rupee + `\s*(\d{4,6})` + perMonth), single(rupeesMonthly)},
	// Rs. 600000 - 800000, 2000000-2500000 in rupees a year
	{regexp.MustCompile(`(?i)` + rupee + `?\s*(\d{5,8})\s*-\s*` + rupee + `?\s*(\d{5,8})`), rangeOf(rupees)},
	// ₹450000 a year
	{regexp.MustCompile(`(?i)` + rupee + `\s*(\d{5,8})\b`), single(rupees)},
	// 20L-25L
	{regexp.MustCompile(`(?i)(\d+)\s*L\s*-\s*(\d+)\s*L`), rangeOf(lakhs)},
	// $80K-$100K, converted at the rough rate used for listings abroad
	{regexp.MustCompile(`(?i)\$\s*(\d+)K?\s*-\s*\$?\s*(\d+)K?`), rangeOf(thousandsUSD)},
}

var notStated = map[string]bool{
	"":              true,
	"not mentioned": true,
	"not disclosed": true,
	"n/a":           true,
	"na":            true,
}

// SalaryStated reports whether text carries any salary information at all.
func SalaryStated(text string) bool {
	return !notStated[strings.ToLower(strings.TrimSpace(text))]
}

// ParseSalary extracts a salary in LPA from free text.
func ParseSalary(text string) (Salary, bool) {
	if !SalaryStated(text) {
		return Salary{}, false
	}
	text = strings.ReplaceAll(text, ",", "")
	for _, p := range salaryPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if s, ok := p.parse(m); ok {
			return s, true
		}
	}
	return Salary{}, false
}

func lakhs(n float64) float64            { return n }
func rupees(n float64) float64           { return n / 100000 }
func rupeesMonthly(n float64) float64    { return n * 12 / 100000 }
func thousandsMonthly(n float64) float64 { return n * 12 / 100 }
func thousandsUSD(n float64) float64     { return n * 0.8 }

func single(conv func(float64) float64) func(m []string) (Salary, bool) {
	return func(m []string) (Salary, bool) {
		n, ok := parseFloat(m[1])
		if !ok {
			return Salary{}, false
		}
		n = conv(n)
		return Salary{MinLPA: n, MaxLPA: n, Text: formatLPA(n) + " LPA"}, true
	}
}

func rangeOf(conv func(float64) float64) func(m []string) (Salary, bool) {
	return func(m []string) (Salary, bool) {
		lo, ok1 := parseFloat(m[1])
		hi, ok2 := parseFloat(m[2])
		if !ok1 || !ok2 {
			return Salary{}, false
		}
		lo, hi = conv(lo), conv(hi)
		return Salary{
			MinLPA: lo,
			MaxLPA: hi,
			Text:   fmt.Sprintf("%s-%s LPA", formatLPA(lo), formatLPA(hi)),
		}, true
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// formatLPA rounds to one decimal and drops the fraction for whole numbers.
func formatLPA(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', -1, 64)
}
