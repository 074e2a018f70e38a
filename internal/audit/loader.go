package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobscout/internal/orchestrator"
)

// ErrCancelled is returned by RunLoader when the user interrupts the fetch.
var ErrCancelled = errors.New("cancelled")

// FetchFunc audits one source.
type FetchFunc func(ctx context.Context) ([]orchestrator.AuditedJob, error)

type auditDoneMsg struct {
	jobs []orchestrator.AuditedJob
	err  error
}

type loaderModel struct {
	source  string
	spinner spinner.Model
	run     tea.Cmd
	cancel  context.CancelFunc

	jobs []orchestrator.AuditedJob
	err  error
	done bool
}

func newLoaderModel(ctx context.Context, source string, fn FetchFunc) (loaderModel, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("33"))),
	)
	return loaderModel{
		source:  source,
		spinner: sp,
		cancel:  cancel,
		run: func() tea.Msg {
			jobs, err := fn(ctx)
			return auditDoneMsg{jobs: jobs, err: err}
		},
	}, cancel
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.run, m.spinner.Tick)
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case auditDoneMsg:
		m.jobs, m.err, m.done = msg.jobs, msg.err, true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancel()
			m.err, m.done = ErrCancelled, true
			return m, tea.Quit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s auditing %s: fetch, normalize, filter...\n", m.spinner.View(), m.source)
}

// RunLoader runs fn behind an inline spinner and returns its result.
// Ctrl+C cancels fn's context and yields ErrCancelled.
func RunLoader(ctx context.Context, source string, fn FetchFunc) ([]orchestrator.AuditedJob, error) {
	m, cancel := newLoaderModel(ctx, source, fn)
	defer cancel()

	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("audit loader: %w", err)
	}
	final := result.(loaderModel)
	return final.jobs, final.err
}
