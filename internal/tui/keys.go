package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle   key.Binding
	Break    key.Binding
	Resume   key.Binding
	Finish   key.Binding
	Reset    key.Binding
	More     key.Binding
	Less     key.Binding
	Duration key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "start/pause")),
		Break:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "break")),
		Resume:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "end break")),
		Finish:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		Reset:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
		More:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "adjust minutes")),
		Less:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("+/-", "adjust minutes")),
		Duration: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "set minutes")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Break, k.Finish, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Break, k.Resume, k.Finish},
		{k.Reset, k.More, k.Duration},
		{k.Help, k.Quit},
	}
}
