package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/dashboard"
	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a mandate to view details.
type SelectedTaskMsg struct {
	TaskID int64
}

// Model is the mandate list view.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	tasks       []model.Task
	leaders     []model.User
	role        model.Role
	query       string
	unitIndex   int
	showClosed  bool
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new mandate list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Mandat Direksi"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "cari judul mandat..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		unitIndex:   -1,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetData replaces the mandates and the roster used for the unit filter.
func (m *Model) SetData(tasks []model.Task, users []model.User, role model.Role) tea.Cmd {
	m.tasks = tasks
	m.role = role
	m.leaders = nil
	for _, u := range users {
		if u.Role == model.RoleUnit {
			m.leaders = append(m.leaders, u)
		}
	}
	if m.unitIndex >= len(m.leaders) {
		m.unitIndex = -1
	}
	return m.refresh()
}

// ReplaceTask swaps in an updated copy of one mandate.
func (m *Model) ReplaceTask(task model.Task) tea.Cmd {
	for i := range m.tasks {
		if m.tasks[i].ID == task.ID {
			m.tasks[i] = task
			return m.refresh()
		}
	}
	return nil
}

// Visible returns the mandates currently listed: open ones first, then the
// closed ones when they are shown.
func (m Model) Visible() []model.Task {
	filtered := dashboard.Filter(m.tasks, m.query, m.unitID())
	active, closed := dashboard.Partition(filtered)
	if dashboard.VisibleClosed(m.role, m.showClosed) {
		return append(active, closed...)
	}
	return active
}

func (m Model) unitID() int64 {
	if m.unitIndex < 0 || m.unitIndex >= len(m.leaders) {
		return 0
	}
	return m.leaders[m.unitIndex].ID
}

func (m *Model) refresh() tea.Cmd {
	visible := m.Visible()
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. The list is
// filtered as the user types.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.query = ""
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.query = m.searchInput.Value()
	return m, tea.Batch(cmd, m.refresh())
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		id := item.Task.ID
		return m, func() tea.Msg { return SelectedTaskMsg{TaskID: id} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.UnitFilter):
		m.unitIndex++
		if m.unitIndex >= len(m.leaders) {
			m.unitIndex = -1
		}
		return m, m.refresh()

	case key.Matches(msg, m.keys.ToggleClosed):
		if m.role != model.RoleSecretary {
			return m, nil
		}
		m.showClosed = !m.showClosed
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searchMode }

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	summary := ""
	if m.query != "" {
		summary = fmt.Sprintf("cari: %q", m.query)
	}
	if id := m.unitID(); id != 0 {
		if summary != "" {
			summary += " | "
		}
		summary += "unit: " + m.leaders[m.unitIndex].Name
	}
	if m.showClosed && m.role == model.RoleSecretary {
		if summary != "" {
			summary += " | "
		}
		summary += "termasuk CLOSED"
	}
	return summary
}

// View renders the list view.
func (m Model) View() string {
	var header string
	if m.searchMode {
		header = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	}

	if header == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// renderEmptyState shows guidance text when no mandates are listed.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || m.unitID() != 0 {
		return style.Render("Tidak ada mandat yang cocok.\nUbah pencarian atau filter unit.")
	}
	if m.role == model.RoleSecretary {
		return style.Render("Belum ada mandat.\n\nTekan n untuk membuat mandat atau 3 untuk AI intake.")
	}
	return style.Render("Belum ada mandat untuk Anda.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
