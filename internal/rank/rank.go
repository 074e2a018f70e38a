// Package rank assigns review priority to accepted jobs.
package rank

import (
	"regexp"
	"slices"
	"strings"

	"github.com/amishk599/jobscout/internal/fingerprint"
	"github.com/amishk599/jobscout/internal/model"
)

// DefaultPriorityCompanies are the employers that bump a job's priority.
var DefaultPriorityCompanies = []string{"Amazon", "Google", "Microsoft", "Meta", "Apple", "Flipkart", "Netflix"}

const (
	companyWeight   = 3
	salaryWeight    = 2
	highSalaryBonus = 2
	midSalaryBonus  = 1

	highSalaryLPA = 30
	midSalaryLPA  = 25

	highThreshold   = 7
	mediumThreshold = 4
)

// Scorer scores jobs against a list of priority companies.
type Scorer struct {
	companies []*regexp.Regexp
}

// NewScorer creates a Scorer. A nil list uses DefaultPriorityCompanies.
func NewScorer(companies []string) *Scorer {
	if companies == nil {
		companies = DefaultPriorityCompanies
	}
	s := &Scorer{}
	for _, c := range companies {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		s.companies = append(s.companies, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(c)+`\b`))
	}
	return s
}

// Score returns the numeric score for an accepted job with its display salary.
func (s *Scorer) Score(company, salary string, salaryLPA *float64) int {
	score := 0
	for _, re := range s.companies {
		if re.MatchString(company) {
			score += companyWeight
			break
		}
	}
	if strings.TrimSpace(salary) != "" {
		score += salaryWeight
	}
	if salaryLPA != nil {
		switch {
		case *salaryLPA >= highSalaryLPA:
			score += highSalaryBonus
		case *salaryLPA >= midSalaryLPA:
			score += midSalaryBonus
		}
	}
	return score
}

// Priority maps a score to a bucket.
func Priority(score int) model.Priority {
	switch {
	case score >= highThreshold:
		return model.PriorityHigh
	case score >= mediumThreshold:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Annotate builds the stored form of an accepted job.
func (s *Scorer) Annotate(job model.Job, v model.Verdict, salary string) model.AnnotatedJob {
	return model.AnnotatedJob{
		Job:      job,
		Verdict:  v,
		Key:      fingerprint.Key(job),
		Salary:   salary,
		Priority: Priority(s.Score(job.Company, salary, v.SalaryLPA)),
	}
}

// Sort orders jobs HIGH to LOW, keeping input order within a bucket.
func Sort(jobs []model.AnnotatedJob) {
	slices.SortStableFunc(jobs, func(a, b model.AnnotatedJob) int {
		return b.Priority.Rank() - a.Priority.Rank()
	})
}
