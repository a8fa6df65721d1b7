package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Expand     key.Binding
	Collapse   key.Binding
	Enter      key.Binding
	Tab        key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	ReRunLast  key.Binding
	RunChanged key.Binding
	Autorun    key.Binding
	Reset      key.Binding
	Cancel     key.Binding
	Refresh    key.Binding
	Search     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	ExitSearch key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// NewKeyMap returns a set of default keybindings.
func NewKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("l", "right", " "),
			key.WithHelp("l/→", "expand"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "collapse"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev tab"),
		),
		ReRunLast: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-run last"),
		),
		RunChanged: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "run changed"),
		),
		Autorun: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle autorun"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset results"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop run"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload tests"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "prev match"),
		),
		ExitSearch: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "exit search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini-help view. It's part of the help.KeyMap interface.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Autorun, k.Search, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view. It's part of the help.KeyMap interface.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand, k.Collapse, k.Tab, k.NextTab, k.PrevTab},
		{k.Enter, k.ReRunLast, k.RunChanged, k.Cancel, k.Autorun, k.Reset},
		{k.Search, k.NextMatch, k.PrevMatch, k.ExitSearch},
		{k.Refresh, k.Help, k.Quit},
	}
}
