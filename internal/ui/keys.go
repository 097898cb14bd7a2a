package ui

import "github.com/charmbracelet/bubbles/key"

// GState represents the state for "gg" navigation.
type GState int

const (
	GStateIdle GState = iota
	GStateFirstG
)

// KeyMap defines the keybindings of the list screens.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Select       key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	Refresh      key.Binding
	Deliveries   key.Binding
	History      key.Binding
	Export       key.Binding
	Quit         key.Binding
	Help         key.Binding
	NextColumn   key.Binding
	PrevColumn   key.Binding
	SortAsc      key.Binding
	SortDesc     key.Binding
	HideColumn   key.Binding
	ShowColumns  key.Binding
	FilterValue  key.Binding
	ClearFilter  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "l"),
			key.WithHelp("enter", "open report"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "½ page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "½ page up"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Deliveries: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "deliveries"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export xlsx"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		NextColumn: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next col"),
		),
		PrevColumn: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev col"),
		),
		SortAsc: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort asc"),
		),
		SortDesc: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort desc"),
		),
		HideColumn: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "hide col"),
		),
		ShowColumns: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "show cols"),
		),
		FilterValue: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "filter value"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "clear filter"),
		),
	}
}

// FormKeyMap defines keybindings for the report form.
type FormKeyMap struct {
	NextField   key.Binding
	PrevField   key.Binding
	Camera      key.Binding
	Gallery     key.Binding
	Submit      key.Binding
	PhotoLeft   key.Binding
	PhotoRight  key.Binding
	ViewPhoto   key.Binding
	RemovePhoto key.Binding
	Cancel      key.Binding
}

// DefaultFormKeyMap returns the default form keybindings.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Camera: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "take photo"),
		),
		Gallery: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "pick image"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		PhotoLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev photo"),
		),
		PhotoRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next photo"),
		),
		ViewPhoto: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view photo"),
		),
		RemovePhoto: key.NewBinding(
			key.WithKeys("x", "delete", "backspace"),
			key.WithHelp("x", "remove photo"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}
