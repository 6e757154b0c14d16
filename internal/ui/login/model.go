// Package login renders the sign-in screen.
package login

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/session"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// SubmitMsg asks the parent to authenticate with the entered credentials.
type SubmitMsg struct {
	Username string
	Password string
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	username string
	password string
}

// Model is the login screen.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	err     string
	pending bool
	width   int
	height  int
}

// New creates a login screen.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init builds the form.
func (m *Model) Init() tea.Cmd {
	return m.Start()
}

// Start resets the password, keeps the username and rebuilds the form.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.pending = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m.form.Init()
}

// SetError shows msg under the form and reopens it for another attempt.
func (m *Model) SetError(msg string) tea.Cmd {
	m.err = msg
	return m.Start()
}

// Reset clears the form and any message, used after logout.
func (m *Model) Reset() tea.Cmd {
	m.fb.username = ""
	m.err = ""
	return m.Start()
}

// Pending reports whether a sign-in is in flight.
func (m Model) Pending() bool { return m.pending }

// Update handles messages for the login screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.pending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		username := strings.TrimSpace(m.fb.username)
		password := m.fb.password
		if username == "" || password == "" {
			return m, m.SetError(session.MsgCredentialsRequired)
		}
		m.err = ""
		m.pending = true
		return m, func() tea.Msg { return SubmitMsg{Username: username, Password: password} }
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

// View renders the login screen.
func (m Model) View() string {
	title := theme.HeaderStyle.Render("BOD Watchlist")
	subtitle := theme.DimmedStyle.Render("Pemantauan mandat Direksi")

	body := ""
	if m.form != nil {
		body = m.form.View()
	}

	var footer string
	switch {
	case m.pending:
		footer = theme.DimmedStyle.Render("Memverifikasi...")
	case m.err != "":
		footer = theme.ErrorStyle.Render(m.err)
	}

	panel := theme.DetailPanelStyle.
		Width(m.formWidth() + 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", body, footer))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 36 {
		w = 36
	}
	if w > 60 {
		w = 60
	}
	return w
}
