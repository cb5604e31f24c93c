package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of every view
type KeyMap struct {
	Quit      key.Binding
	Interrupt key.Binding

	NextTab  key.Binding
	PrevTab  key.Binding
	JumpTab  key.Binding
	Up       key.Binding
	Down     key.Binding
	LoadMore key.Binding
	Open     key.Binding
	Back     key.Binding
	Filter   key.Binding
	Sort     key.Binding
	Icons    key.Binding
	Refresh  key.Binding
	Preview  key.Binding
	Download key.Binding
	Clear    key.Binding
	Help     key.Binding

	// filter line
	FilterDone key.Binding

	// full screen preview
	ScrollUp        key.Binding
	ScrollDown      key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	Top             key.Binding
	Bottom          key.Binding
	ClosePreview    key.Binding
	PreviewDownload key.Binding

	CloseHelp key.Binding
}

// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		JumpTab: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "jump to tab"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "l", "o"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace", "h"),
			key.WithHelp("h", "back"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Icons: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "icon size"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear selection"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		FilterDone: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter/esc", "done"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "u"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "d"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
		),
		ClosePreview: key.NewBinding(
			key.WithKeys("esc", "backspace", "h", "left"),
		),
		PreviewDownload: key.NewBinding(
			key.WithKeys("D"),
		),
		CloseHelp: key.NewBinding(
			key.WithKeys("esc", "?"),
		),
	}
}
