package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Add, Submit, Cancel, Complete, Timer, Remove, Quit key.Binding
	// Interrupt quits from any mode, including while typing a task.
	Interrupt key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Complete:  key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "complete")),
		Timer:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/pause")),
		Remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Interrupt: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Add, k.Complete, k.Timer, k.Remove, k.Quit}
}

func (k keyMap) addHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.Interrupt}
}
