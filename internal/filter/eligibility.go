package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// Rejection and acceptance reasons shared with reporting.
const (
	ReasonSeniorRole     = "Senior role"
	ReasonEntryLevel     = "Entry-level role"
	ReasonNoExperience   = "No experience requirement"
	ReasonBelowFloor     = "Below salary floor"
	ReasonEstimatedBelow = "Estimated below salary floor"
	ReasonUnresolved     = "Salary unresolved"
)

var (
	redFlags   = regexp.MustCompile(`\b(?:senior|sr|lead|principal|architect|manager|head|director|vp|chief|experienced)\b`)
	plusYears  = regexp.MustCompile(`(\d+)\s*\+\s*(?:years?|yrs?)`)
	greenFlags = regexp.MustCompile(`\b(?:freshers?|entry|junior|associate|trainees?|graduates?|interns?|internship|analyst i)\b`)
)

// EligibilityConfig bounds the accepted experience band.
type EligibilityConfig struct {
	MaxMinYears int // a stated minimum above this rejects
	MaxMaxYears int // a stated maximum above this makes the range "open"
	SeniorYears int // "N+ years" in a title rejects when N >= SeniorYears
}

// DefaultEligibility accepts 0-2 years roles.
func DefaultEligibility() EligibilityConfig {
	return EligibilityConfig{MaxMinYears: 2, MaxMaxYears: 5, SeniorYears: 3}
}

// Policy decides whether a job suits an early-career candidate. Salary is
// handled separately by SalaryResolver.
type Policy struct {
	cfg EligibilityConfig
}

// NewPolicy returns a Policy. Zero fields in cfg fall back to the defaults.
func NewPolicy(cfg EligibilityConfig) *Policy {
	def := DefaultEligibility()
	if cfg.MaxMinYears <= 0 {
		cfg.MaxMinYears = def.MaxMinYears
	}
	if cfg.MaxMaxYears <= 0 {
		cfg.MaxMaxYears = def.MaxMaxYears
	}
	if cfg.SeniorYears <= 0 {
		cfg.SeniorYears = def.SeniorYears
	}
	return &Policy{cfg: cfg}
}

// Evaluate applies title flags first, then the experience band found in the
// description. Postings with no signal at all are accepted.
func (p *Policy) Evaluate(job model.Job) model.Verdict {
	title := strings.ToLower(job.Title)

	if p.seniorTitle(title) {
		return model.Verdict{Accepted: false, Reason: ReasonSeniorRole}
	}
	if greenFlags.MatchString(title) {
		return model.Verdict{Accepted: true, Reason: ReasonEntryLevel}
	}

	exp, ok := ExtractExperience(job.Description)
	if !ok {
		return model.Verdict{Accepted: true, Reason: ReasonNoExperience}
	}
	switch {
	case exp.Min > p.cfg.MaxMinYears:
		return model.Verdict{Accepted: false, Reason: fmt.Sprintf("Requires %d+ years", exp.Min)}
	case exp.Max <= p.cfg.MaxMaxYears:
		return model.Verdict{Accepted: true, Reason: fmt.Sprintf("%d-%d years", exp.Min, exp.Max)}
	default:
		return model.Verdict{Accepted: true, Reason: fmt.Sprintf("Open experience range %d-%d years", exp.Min, exp.Max)}
	}
}

func (p *Policy) seniorTitle(title string) bool {
	if redFlags.MatchString(title) {
		return true
	}
	for _, m := range plusYears.FindAllStringSubmatch(title, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= p.cfg.SeniorYears {
			return true
		}
	}
	return false
}
