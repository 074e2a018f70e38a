package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/salary_estimate.md
var salaryPromptRaw string

// SalaryPromptTemplate is the parsed prompt template for salary estimates.
// Parsed once at package init; reused on every Estimate call.
var SalaryPromptTemplate = template.Must(template.New("salary_estimate").Parse(salaryPromptRaw))
