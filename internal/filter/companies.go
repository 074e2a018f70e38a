package filter

import (
	"regexp"
	"strings"
)

// CompanySalary is a known entry-level salary for a company.
type CompanySalary struct {
	Name string // lower-case token matched against the company name
	LPA  float64
}

// DefaultCompanySalaries lists typical fresher packages in LPA. Order matters
// only when a company name contains several known tokens.
var DefaultCompanySalaries = []CompanySalary{
	{"amazon", 28}, {"google", 30}, {"microsoft", 25}, {"meta", 30},
	{"flipkart", 20}, {"swiggy", 18}, {"zomato", 16}, {"paytm", 15},
	{"phonepe", 18}, {"razorpay", 16}, {"cred", 18}, {"uber", 22},
	{"ola", 15}, {"myntra", 16}, {"linkedin", 28}, {"netflix", 35},
	{"adobe", 24}, {"salesforce", 22}, {"oracle", 18}, {"sap", 20},
	{"vmware", 20}, {"intuit", 22}, {"walmart", 18}, {"tcs", 7},
	{"infosys", 8}, {"wipro", 7}, {"hcl", 8}, {"cognizant", 8},
	{"accenture", 9}, {"capgemini", 8}, {"deloitte", 10}, {"ey", 9},
	{"pwc", 10}, {"kpmg", 9},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SalaryTable looks up static salaries by company name.
type SalaryTable struct {
	entries []CompanySalary
}

// NewSalaryTable builds a table from entries. A nil slice uses
// DefaultCompanySalaries.
func NewSalaryTable(entries []CompanySalary) *SalaryTable {
	if entries == nil {
		entries = DefaultCompanySalaries
	}
	return &SalaryTable{entries: entries}
}

// Lookup matches whole words of company, so "Motorola" is not "ola".
func (t *SalaryTable) Lookup(company string) (CompanySalary, bool) {
	words := make(map[string]bool)
	for _, w := range nonAlnum.Split(strings.ToLower(company), -1) {
		if w != "" {
			words[w] = true
		}
	}
	for _, e := range t.entries {
		if words[e.Name] {
			return e, true
		}
	}
	return CompanySalary{}, false
}
