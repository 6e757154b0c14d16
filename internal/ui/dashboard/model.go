// Package dashboard renders the board overview: status counters, the
// per-leader demography and the AI executive summary.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	agg "github.com/nhle/bod-watchlist/internal/dashboard"
	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// SummaryRequestMsg asks the parent to generate an executive summary of
// the given mandates.
type SummaryRequestMsg struct {
	Tasks []model.Task
}

// SummaryMsg carries the generated summary.
type SummaryMsg struct {
	Text string
	Err  error
}

// Model is the dashboard view.
type Model struct {
	keys        *keys.KeyMap
	tasks       []model.Task
	stats       agg.Stats
	demography  table.Model
	rows        int
	summary     string
	summaryErr  string
	summarizing bool
	now         func() time.Time
	width       int
	height      int
}

// New creates a dashboard view.
func New(k *keys.KeyMap, width, height int) Model {
	t := table.New(
		table.WithColumns(demographyColumns(width)),
		table.WithHeight(tableHeight(height)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.ColorBlue).Bold(true)
	t.SetStyles(styles)

	return Model{
		keys:       k,
		stats:      agg.Summarize(nil),
		demography: t,
		now:        time.Now,
		width:      width,
		height:     height,
	}
}

// SetData replaces the mandates and leader rows on display.
func (m *Model) SetData(tasks []model.Task, rows []model.LeaderDemography) {
	m.tasks = tasks
	m.stats = agg.Summarize(tasks)
	m.rows = len(rows)
	m.demography.SetRows(demographyRows(rows))
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SummaryMsg:
		m.summarizing = false
		if msg.Err != nil {
			m.summaryErr = "Gagal membuat ringkasan eksekutif."
			return m, nil
		}
		m.summaryErr = ""
		m.summary = msg.Text
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Summary) {
			return m, m.RequestSummary()
		}
	}

	var cmd tea.Cmd
	m.demography, cmd = m.demography.Update(msg)
	return m, cmd
}

// RequestSummary asks the parent for an executive summary of the loaded
// mandates. It is a no-op while one is in flight or nothing is loaded.
func (m *Model) RequestSummary() tea.Cmd {
	if m.summarizing || len(m.tasks) == 0 {
		return nil
	}
	m.summarizing = true
	m.summaryErr = ""
	tasks := m.tasks
	return func() tea.Msg { return SummaryRequestMsg{Tasks: tasks} }
}

// View renders the dashboard.
func (m Model) View() string {
	sections := []string{
		m.renderCards(),
		"",
		theme.TitleStyle.Render("Demografi Pimpinan Unit"),
	}
	if m.rows == 0 {
		sections = append(sections, theme.DimmedStyle.Render("Belum ada data pimpinan unit."))
	} else {
		sections = append(sections, m.demography.View())
	}

	sections = append(sections, "", theme.TitleStyle.Render("Ringkasan Eksekutif"))
	switch {
	case m.summarizing:
		sections = append(sections, theme.DimmedStyle.Render("Menyusun ringkasan..."))
	case m.summaryErr != "":
		sections = append(sections, theme.ErrorStyle.Render(m.summaryErr))
	case m.summary != "":
		sections = append(sections, lipgloss.NewStyle().Width(m.width-4).Render(m.summary))
	default:
		sections = append(sections, theme.HelpStyle.Render("Tekan S untuk membuat ringkasan rapat."))
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderCards() string {
	overdue := 0
	now := m.now()
	for _, t := range m.tasks {
		if t.IsOverdue(now) {
			overdue++
		}
	}

	cards := []string{card("TOTAL", m.stats.Total, theme.ColorWhite)}
	for _, s := range model.AllStatuses {
		cards = append(cards, card(string(s), m.stats.Count(s), theme.StatusColor(s)))
	}
	cards = append(cards, card("OVERDUE", overdue, theme.ColorRed))

	// Wrap cards onto as many lines as the width allows.
	var lines []string
	var line []string
	used := 0
	for _, c := range cards {
		w := lipgloss.Width(c)
		if used+w > m.width && len(line) > 0 {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, line...))
			line, used = nil, 0
		}
		line = append(line, c)
		used += w
	}
	if len(line) > 0 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func card(label string, n int, color lipgloss.TerminalColor) string {
	value := lipgloss.NewStyle().Bold(true).Foreground(color).Render(strconv.Itoa(n))
	return theme.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, value, theme.LabelStyle.Render(label)))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.demography.SetColumns(demographyColumns(width))
	m.demography.SetHeight(tableHeight(height))
}

func tableHeight(height int) int {
	h := height - 14
	if h < 3 {
		h = 3
	}
	return h
}

func demographyColumns(width int) []table.Column {
	nameWidth := width - 12 - len(model.AllStatuses)*7 - 8
	if nameWidth < 16 {
		nameWidth = 16
	}
	cols := []table.Column{
		{Title: "Pimpinan", Width: nameWidth},
		{Title: "Divisi", Width: 12},
	}
	for _, s := range model.AllStatuses {
		cols = append(cols, table.Column{Title: abbreviate(s), Width: 5})
	}
	return append(cols, table.Column{Title: "Total", Width: 6})
}

func demographyRows(rows []model.LeaderDemography) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		row := table.Row{r.FullName, r.Division}
		for _, s := range model.AllStatuses {
			row = append(row, strconv.Itoa(r.Counts[s]))
		}
		out = append(out, append(row, strconv.Itoa(r.Total())))
	}
	return out
}

// abbreviate shortens a status to a column heading, e.g. "PENDING CLOSING"
// becomes "PC".
func abbreviate(s model.Status) string {
	words := strings.Fields(string(s))
	if len(words) == 1 {
		return fmt.Sprintf("%.4s", words[0])
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteByte(w[0])
	}
	return b.String()
}
