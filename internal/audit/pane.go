package audit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/orchestrator"
)

// rowHeight is the number of lines one job occupies in a pane.
const rowHeight = 3

var (
	paneBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	paneTitle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	rowTitle    = lipgloss.NewStyle().Bold(true)
	rowMeta     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	rowKept     = lipgloss.NewStyle().Foreground(lipgloss.Color("71"))
	rowDropped  = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	rowSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("24"))
)

const (
	colorFocus = lipgloss.Color("39")
	colorDim   = lipgloss.Color("240")
)

// pane is a scrollable list of audited jobs with a cursor.
type pane struct {
	title  string
	jobs   []orchestrator.AuditedJob
	cursor int
	vp     viewport.Model
}

func (p *pane) resize(w, h int) {
	p.vp.Width, p.vp.Height = w, h
}

func (p *pane) move(delta int) {
	if len(p.jobs) == 0 {
		return
	}
	p.cursor = max(0, min(p.cursor+delta, len(p.jobs)-1))

	top := p.cursor * rowHeight
	switch bottom := top + rowHeight - 1; {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case bottom >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(bottom - p.vp.Height + 1)
	}
}

func (p *pane) selected() (orchestrator.AuditedJob, bool) {
	if len(p.jobs) == 0 {
		return orchestrator.AuditedJob{}, false
	}
	return p.jobs[p.cursor], true
}

// refresh re-renders the rows; the cursor is only highlighted when focused.
func (p *pane) refresh(focused bool) {
	if len(p.jobs) == 0 {
		p.vp.SetContent("  (no jobs)")
		return
	}
	rows := make([]string, len(p.jobs))
	for i, j := range p.jobs {
		rows[i] = renderRow(j, focused && i == p.cursor)
	}
	p.vp.SetContent(strings.Join(rows, "\n\n"))
}

func (p *pane) view(focused bool) string {
	color := colorDim
	if focused {
		color = colorFocus
	}
	header := paneTitle.Foreground(color).Render(fmt.Sprintf("%s (%d)", p.title, len(p.jobs)))
	body := paneBorder.BorderForeground(color).Width(p.vp.Width).Render(p.vp.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func renderRow(j orchestrator.AuditedJob, selected bool) string {
	title, meta, reason := rowTitle, rowMeta, rowDropped
	if j.Verdict.Accepted {
		reason = rowKept
	}
	marker := "  "
	if selected {
		title, meta, reason = rowSelected.Bold(true), rowSelected, rowSelected
		marker = "▸ "
	}

	tag := j.Verdict.Reason
	if j.Verdict.Accepted && j.Priority != "" {
		tag = fmt.Sprintf("[%s] %s", j.Priority, tag)
	}
	return marker + title.Render(j.Title) + "\n" +
		marker + meta.Render(fmt.Sprintf("%s · %s · ", j.Location, j.PostedAt.Local().Format("02 Jan"))) +
		reason.Render(tag)
}
