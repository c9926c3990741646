package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings. Letter keys only apply outside the
// search box, where typing owns the keyboard.
type keyMap struct {
	Quit        key.Binding
	QuitLetter  key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	Diagnostics key.Binding
	Tab         key.Binding
	ShiftTab    key.Binding
	Escape      key.Binding

	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Confirm  key.Binding

	PriceDown key.Binding
	PriceUp   key.Binding
	PriceMin  key.Binding
	PriceMax  key.Binding

	OpenSelection  key.Binding
	ToggleKeywords key.Binding
	RecommendThis  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		QuitLetter: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "?"),
			key.WithHelp("f1/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Cycle theme"),
		),
		Diagnostics: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "Diagnostics"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next pane"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / clear"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Select / open"),
		),

		PriceDown: key.NewBinding(
			key.WithKeys("left", "-", "h"),
			key.WithHelp("left/-", "Lower max price"),
		),
		PriceUp: key.NewBinding(
			key.WithKeys("right", "+", "=", "l"),
			key.WithHelp("right/+", "Raise max price"),
		),
		PriceMin: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "Max price $0"),
		),
		PriceMax: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "No price limit"),
		),

		OpenSelection: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Open selection"),
		),
		ToggleKeywords: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "Toggle keywords"),
		),
		RecommendThis: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Recommend similar"),
		),
	}
}

// ShortHelp returns key bindings for the status line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Confirm, k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Up, k.Down, k.Confirm, k.Escape},
		{k.PriceDown, k.PriceUp, k.PriceMin, k.PriceMax},
		{k.OpenSelection, k.ToggleKeywords, k.RecommendThis},
		{k.CycleTheme, k.Diagnostics, k.Help, k.Quit},
	}
}
