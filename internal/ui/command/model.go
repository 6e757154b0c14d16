// Package command is the ':' command palette.
package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/theme"
)

// CommandMsg is emitted when the user executes a known command. The value
// is the canonical command name.
type CommandMsg string

// Command is one palette entry.
type Command struct {
	Name    string
	Aliases []string
	Help    string
}

// Commands lists every palette entry in display order.
var Commands = []Command{
	{Name: "dashboard", Aliases: []string{"dash", "home"}, Help: "ringkasan status dan demografi"},
	{Name: "tasks", Aliases: []string{"mandat", "list"}, Help: "daftar mandat"},
	{Name: "intake", Aliases: []string{"ai", "noted"}, Help: "AI noted: notulensi ke mandat (Sekretaris)"},
	{Name: "new", Aliases: []string{"baru"}, Help: "mandat baru (Sekretaris)"},
	{Name: "notifications", Aliases: []string{"notif"}, Help: "panel notifikasi"},
	{Name: "summary", Aliases: []string{"ringkasan"}, Help: "ringkasan eksekutif AI"},
	{Name: "refresh", Aliases: []string{"sync", "r"}, Help: "muat ulang data"},
	{Name: "logout", Aliases: []string{"keluar"}, Help: "akhiri sesi"},
	{Name: "quit", Aliases: []string{"q", "exit"}, Help: "keluar aplikasi"},
}

// Resolve maps typed text to a canonical command name.
func Resolve(text string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, c := range Commands {
		if text == c.Name {
			return c.Name, true
		}
		for _, a := range c.Aliases {
			if text == a {
				return c.Name, true
			}
		}
	}
	return "", false
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "ketik perintah..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		name, ok := Resolve(text)
		if !ok {
			m.err = "perintah tidak dikenal: " + text
			return m, nil
		}
		m.err = ""
		return m, func() tea.Msg { return CommandMsg(name) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections := []string{titleStyle.Render("Perintah"), m.input.View()}
	if m.err != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.err))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input and clears stale errors.
func (m *Model) Focus() tea.Cmd {
	m.err = ""
	return m.input.Focus()
}
