// Package notifications renders the notification panel.
package notifications

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// CloseMsg signals the parent to close the panel.
type CloseMsg struct{}

// OpenTaskMsg asks the parent to show the mandate a notification is about.
type OpenTaskMsg struct {
	TaskID int64
}

// Model is the notification panel. Items that were unread when the panel
// opened stay highlighted until it closes, even after they were marked
// read.
type Model struct {
	keys   *keys.KeyMap
	items  []model.Notification
	fresh  map[string]bool
	cursor int
	now    func() time.Time
	err    string
	width  int
	height int
}

// New creates the panel.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, now: time.Now, width: width, height: height}
}

// Open shows items and remembers which of them were unread.
func (m *Model) Open(items []model.Notification) {
	m.fresh = make(map[string]bool)
	for _, n := range items {
		if !n.IsRead {
			m.fresh[n.ID] = true
		}
	}
	m.items = items
	m.cursor = 0
	m.err = ""
}

// SetItems refreshes the list without touching the highlight set.
func (m *Model) SetItems(items []model.Notification) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = max(len(items)-1, 0)
	}
}

// SetError shows a failure to mark notifications read.
func (m *Model) SetError(msg string) { m.err = msg }

// Update handles messages for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back), key.Matches(keyMsg, m.keys.Notifications):
		return m, func() tea.Msg { return CloseMsg{} }
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Select):
		if m.cursor < len(m.items) {
			id := m.items[m.cursor].TaskID
			return m, func() tea.Msg { return OpenTaskMsg{TaskID: id} }
		}
	}
	return m, nil
}

// View renders the panel.
func (m Model) View() string {
	sections := []string{theme.TitleStyle.Render("Notifikasi")}

	if len(m.items) == 0 {
		sections = append(sections, theme.DimmedStyle.Italic(true).Render("Tidak ada notifikasi."))
	}

	rows := max(m.height-6, 1) / 2
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.items))

	for i := start; i < end; i++ {
		n := m.items[i]
		marker := "  "
		if m.fresh[n.ID] {
			marker = theme.OverdueStyle.Render("● ")
		}
		from := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(n.FromUser.Name)
		line := fmt.Sprintf("%s%s  %s", marker, from, theme.DimmedStyle.Render(relativeTime(m.now(), n.CreatedAt)))
		body := "  " + n.Message
		if n.TaskTitle != "" {
			body += theme.DimmedStyle.Render(" · " + n.TaskTitle)
		}
		entry := lipgloss.JoinVertical(lipgloss.Left, line, body)
		if i == m.cursor {
			entry = theme.SelectedItemStyle.Render(entry)
		} else {
			entry = theme.ListItemStyle.Render(entry)
		}
		sections = append(sections, entry)
	}

	if m.err != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.err))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// relativeTime returns a short Indonesian relative time.
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "baru saja"
	case d < time.Hour:
		return fmt.Sprintf("%d menit lalu", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d jam lalu", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d hari lalu", int(d.Hours()/24))
	default:
		return t.Local().Format("2006-01-02")
	}
}
