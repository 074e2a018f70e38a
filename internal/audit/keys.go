package audit

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Switch, Open, Back, Quit key.Binding
	Browser, Description               key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Switch:      key.NewBinding(key.WithKeys("tab", "left", "right"), key.WithHelp("tab", "switch pane")),
	Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back:        key.NewBinding(key.WithKeys("esc", "backspace", "b"), key.WithHelp("esc", "back")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Browser:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open url")),
	Description: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "description")),
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Switch, k.Open, k.Back, k.Quit}
}

func (k keyMap) detailHelp(hasDescription bool) []key.Binding {
	if hasDescription {
		return []key.Binding{k.Browser, k.Description, k.Back, k.Quit}
	}
	return []key.Binding{k.Browser, k.Back, k.Quit}
}
