package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search and filters
	Search       key.Binding
	UnitFilter   key.Binding
	ToggleClosed key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	Dashboard     key.Binding
	Tasks         key.Binding
	Intake        key.Binding
	Notifications key.Binding

	// Mandate actions
	NewMandate key.Binding
	Compose    key.Binding
	Status     key.Binding
	RACI       key.Binding
	DueDate    key.Binding
	Summary    key.Binding

	// Intake
	Record     key.Binding
	Analyze    key.Binding
	Distribute key.Binding
	Remove     key.Binding

	Logout key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open mandate"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search title"),
		),
		UnitFilter: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "cycle unit filter"),
		),
		ToggleClosed: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "toggle closed"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		Tasks: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "mandates"),
		),
		Intake: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "meeting intake"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "notifications"),
		),
		NewMandate: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new mandate"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "post update"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "propose status"),
		),
		RACI: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "change accountable"),
		),
		DueDate: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "request due date"),
		),
		Summary: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "AI summary"),
		),
		Record: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "record / stop"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "analyze notes"),
		),
		Distribute: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "distribute"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "drop candidate"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Dashboard, k.Tasks, k.Intake, k.Notifications, k.Command, k.Help},
		{k.Search, k.UnitFilter, k.ToggleClosed, k.Refresh, k.NewMandate},
		{k.Compose, k.Status, k.RACI, k.DueDate, k.Summary},
		{k.Record, k.Analyze, k.Distribute, k.Remove, k.Logout},
	}
}
