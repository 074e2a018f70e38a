package audit

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var pickerFrameStyle = lipgloss.NewStyle().Margin(1, 2)

// SourceItem is one entry of the source picker.
type SourceItem struct {
	Name string
	Tier string
	Type string
}

func (s SourceItem) Title() string       { return s.Name }
func (s SourceItem) Description() string { return fmt.Sprintf("%s · %s tier", s.Type, s.Tier) }
func (s SourceItem) FilterValue() string { return s.Name + " " + s.Type }

type pickerModel struct {
	list   list.Model
	chosen int // -1 until the user picks or quits
}

func newPickerModel(sources []SourceItem) pickerModel {
	items := make([]list.Item, len(sources))
	for i, s := range sources {
		items[i] = s
	}
	l := list.New(items, list.NewDefaultDelegate(), 60, 20)
	l.Title = "Pipeline audit · select a source"
	l.SetStatusBarItemName("source", "sources")
	return pickerModel{list: l, chosen: -1}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := pickerFrameStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil
	case tea.KeyMsg:
		// Keys belong to the filter input while the user is typing.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if m.list.SelectedItem() != nil {
				m.chosen = m.list.Index()
			}
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return pickerFrameStyle.Render(m.list.View())
}

// RunSourcePicker lets the user choose a source. It returns the index into
// sources, or -1 when the user quit without choosing.
func RunSourcePicker(sources []SourceItem) (int, error) {
	result, err := tea.NewProgram(newPickerModel(sources), tea.WithAltScreen()).Run()
	if err != nil {
		return -1, fmt.Errorf("source picker: %w", err)
	}
	return result.(pickerModel).chosen, nil
}
