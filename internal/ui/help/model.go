// Package help renders the keyboard shortcut overlay.
package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
	"github.com/nhle/bod-watchlist/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	role   model.Role
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetRole tailors the overlay to the signed-in role.
func (m *Model) SetRole(role model.Role) {
	m.role = role
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	sections := []string{
		titleStyle.Render("Pintasan Keyboard"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Perintah (:)"),
	}
	for _, c := range command.Commands {
		sections = append(sections, fmt.Sprintf("%s  %s",
			lipgloss.NewStyle().Bold(true).Width(14).Render(c.Name),
			theme.DimmedStyle.Render(c.Help)))
	}

	if m.role == model.RoleUnit {
		sections = append(sections, "", theme.HelpStyle.Render(
			"Sebagai pimpinan unit, tekan d pada detail mandat untuk mengajukan perubahan due date."))
	} else if m.role == model.RoleSecretary {
		sections = append(sections, "", theme.HelpStyle.Render(
			"Sebagai Sekretaris, tekan H untuk menampilkan mandat CLOSED."))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
