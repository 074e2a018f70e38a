package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/orchestrator"
)

const stampLayout = "Mon 02 Jan 2006 15:04"

var (
	fieldLabel  = lipgloss.NewStyle().Bold(true).Foreground(colorFocus).Width(14)
	sectionRule = lipgloss.NewStyle().Foreground(colorDim)
	hintText    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

type field struct{ label, value string }

// renderDetail lays out every stage's view of one job: the record as
// fetched, its timestamps, and the verdict.
func renderDetail(j orchestrator.AuditedJob, width int, withDescription bool) string {
	verdict := "rejected"
	if j.Verdict.Accepted {
		verdict = "accepted"
	}
	sections := [][]field{
		{{"Title", j.Title}, {"Company", j.Company}, {"Location", j.Location}, {"Portal", j.Portal}, {"Stated salary", j.SalaryText}},
		{{"Posted", j.PostedText}, {"Posted at", j.PostedAt.Local().Format(stampLayout)}, {"Found at", j.FoundAt.Local().Format(stampLayout)}},
		{{"Verdict", verdict}, {"Reason", j.Verdict.Reason}},
	}
	if j.Verdict.Accepted {
		resolved := ""
		if lpa := j.Verdict.SalaryLPA; lpa != nil {
			resolved = fmt.Sprintf("%.1f LPA", *lpa)
			if j.Verdict.SalaryEstimated {
				resolved += " (estimated)"
			}
		}
		sections[2] = append(sections[2],
			field{"Salary", j.Salary}, field{"Resolved", resolved},
			field{"Priority", string(j.Priority)}, field{"Key", j.Key})
	}
	sections = append(sections, []field{{"URL", j.URL}})

	var blocks []string
	for _, sec := range sections {
		var lines []string
		for _, f := range sec {
			if f.value != "" {
				lines = append(lines, fieldLabel.Render(f.label)+f.value)
			}
		}
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}

	if j.Description != "" {
		wrap := max(width-8, 20)
		if withDescription {
			blocks = append(blocks, sectionRule.Render(strings.Repeat("─", wrap))+"\n"+wordWrap(j.Description, wrap))
		} else {
			blocks = append(blocks, hintText.Render("press r to read the description"))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func wordWrap(text string, width int) string {
	var b strings.Builder
	col := 0
	for _, w := range strings.Fields(text) {
		switch {
		case col == 0:
		case col+1+len(w) > width:
			b.WriteByte('\n')
			col = 0
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}

// openURL hands url to the platform's opener and does not wait for it.
func openURL(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		name, args = "xdg-open", []string{url}
	}
	return exec.Command(name, args...).Start()
}
