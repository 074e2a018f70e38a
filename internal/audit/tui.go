// Package audit is an interactive terminal view that shows, for a single
// source, what the pipeline would keep and why everything else was dropped.
package audit

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/orchestrator"
)

type screen int

const (
	viewList screen = iota
	viewDetail
)

var (
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	detailHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
)

// detailState is the job currently opened in the detail screen.
type detailState struct {
	job             orchestrator.AuditedJob
	vp              viewport.Model
	showDescription bool
}

type auditModel struct {
	source string
	panes  [2]pane // all records, accepted only
	active int
	screen screen
	detail detailState
	help   help.Model
	width  int
	height int
	ready  bool

	wantQuit bool
	err      error // last failure to open a browser
}

func newAuditModel(source string, jobs []orchestrator.AuditedJob) auditModel {
	all := slices.Clone(jobs)
	slices.SortStableFunc(all, func(a, b orchestrator.AuditedJob) int {
		return b.PostedAt.Compare(a.PostedAt)
	})
	accepted := slices.DeleteFunc(slices.Clone(all), func(j orchestrator.AuditedJob) bool {
		return !j.Verdict.Accepted
	})

	m := auditModel{source: source, help: help.New()}
	m.panes[0] = pane{title: source + ": all records", jobs: all}
	m.panes[1] = pane{title: "Accepted", jobs: accepted}
	return m
}

func (m auditModel) Init() tea.Cmd { return nil }

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.wantQuit = true
			return m, tea.Quit
		}
		if m.screen == viewDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m auditModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.active]
	switch {
	case key.Matches(msg, keys.Back):
		return m, tea.Quit
	case key.Matches(msg, keys.Switch):
		m.active = 1 - m.active
	case key.Matches(msg, keys.Up):
		p.move(-1)
	case key.Matches(msg, keys.Down):
		p.move(1)
	case key.Matches(msg, keys.Open):
		job, ok := p.selected()
		if !ok {
			return m, nil
		}
		m.screen = viewDetail
		m.detail = detailState{job: job, vp: viewport.New(m.width-4, m.height-4)}
		m.detail.vp.SetContent(m.renderDetail())
		return m, nil
	default:
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m auditModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.screen = viewList
	case key.Matches(msg, keys.Browser):
		if m.detail.job.URL != "" {
			m.err = openURL(m.detail.job.URL)
		}
	case key.Matches(msg, keys.Description):
		if m.detail.job.Description != "" {
			m.detail.showDescription = !m.detail.showDescription
			m.detail.vp.SetContent(m.renderDetail())
			m.detail.vp.GotoTop()
		}
	default:
		var cmd tea.Cmd
		m.detail.vp, cmd = m.detail.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

// layout splits the width between the two panes, leaving room for borders,
// the pane headers and the help line.
func (m *auditModel) layout() {
	w := max((m.width-5)/2, 20)
	h := max(m.height-4, 5)
	for i := range m.panes {
		if !m.ready {
			m.panes[i].vp = viewport.New(w, h)
		} else {
			m.panes[i].resize(w, h)
		}
	}
	m.ready = true
	if m.screen == viewDetail {
		m.detail.vp.Width, m.detail.vp.Height = m.width-4, m.height-4
		m.detail.vp.SetContent(m.renderDetail())
	}
	m.refresh()
}

func (m *auditModel) refresh() {
	for i := range m.panes {
		m.panes[i].refresh(i == m.active)
	}
}

func (m auditModel) renderDetail() string {
	return renderDetail(m.detail.job, m.width, m.detail.showDescription)
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.screen == viewDetail {
		header := detailHeader.Render("Job details")
		if m.err != nil {
			header += rowDropped.Render("open url: " + m.err.Error())
		}
		body := paneBorder.BorderForeground(colorFocus).Width(m.width - 2).Render(m.detail.vp.View())
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			body,
			m.help.ShortHelpView(keys.detailHelp(m.detail.job.Description != "")),
		)
	}

	all, kept := len(m.panes[0].jobs), len(m.panes[1].jobs)
	summary := summaryStyle.Render(fmt.Sprintf("%d fetched · %d accepted · %d dropped", all, kept, all-kept))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.panes[0].view(m.active == 0), " ", m.panes[1].view(m.active == 1)),
		summary+"  "+m.help.ShortHelpView(keys.listHelp()),
	)
}

// RunAuditTUI shows the two-pane audit view for one source's records. It
// reports wantQuit=true when the user quit, false when they went back to
// the source picker.
func RunAuditTUI(source string, jobs []orchestrator.AuditedJob) (bool, error) {
	result, err := tea.NewProgram(newAuditModel(source, jobs), tea.WithAltScreen()).Run()
	if err != nil {
		return false, fmt.Errorf("audit view: %w", err)
	}
	return result.(auditModel).wantQuit, nil
}
