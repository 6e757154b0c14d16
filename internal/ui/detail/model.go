// Package detail renders one mandate with its RACI matrix and update feed,
// and hosts the actions on it: progress updates with mentions, status
// proposals, accountable reassignment and due-date amendments.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
	"github.com/nhle/bod-watchlist/internal/theme"
)

type mode int

const (
	modeView mode = iota
	modeCompose
	modeRACI
	modeDueDate
)

// Model is the mandate detail view.
type Model struct {
	task     *model.Task
	user     model.User
	roster   []model.User
	viewport viewport.Model
	keys     *keys.KeyMap
	mode     mode
	composer composer
	form     *huh.Form
	fb       *formBindings
	saving   bool
	notice   string
	err      string
	now      func() time.Time
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		composer: newComposer(width),
		fb:       &formBindings{},
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// SetUser sets the signed-in user and the roster used by the pickers.
func (m *Model) SetUser(user model.User, roster []model.User) {
	m.user = user
	m.roster = roster
}

// SetTask shows task, leaving any open editor.
func (m *Model) SetTask(task model.Task) {
	m.task = &task
	m.mode = modeView
	m.form = nil
	m.saving = false
	m.notice = ""
	m.err = ""
	m.fb.newDate = ""
	m.fb.reason = ""
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// TaskID returns the id of the mandate on display, or 0.
func (m Model) TaskID() int64 {
	if m.task == nil {
		return 0
	}
	return m.task.ID
}

// Editing reports whether an editor has keyboard focus.
func (m Model) Editing() bool { return m.mode != modeView }

// Hints lists the key hints for the actions the signed-in user may take on
// the mandate on display.
func (m Model) Hints() string {
	if m.Editing() {
		return "esc batal"
	}
	hints := []string{"esc kembali"}
	if m.task == nil {
		return hints[0]
	}
	if policy.CanUpdate(m.user, *m.task) {
		hints = append(hints, "c update", "s status")
	}
	if policy.CanEditAccountable(m.user, *m.task) {
		hints = append(hints, "a accountable")
	}
	if policy.CanRequestDueDate(m.user, *m.task) {
		hints = append(hints, "d due date")
	}
	return strings.Join(hints, " | ")
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if saved, ok := msg.(TaskSavedMsg); ok {
		return m.handleSaved(saved)
	}
	if m.task == nil {
		return m, nil
	}

	switch m.mode {
	case modeCompose:
		return m.updateCompose(msg)
	case modeRACI, modeDueDate:
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Compose):
			return m.openComposer(false)

		case key.Matches(msg, m.keys.Status):
			return m.openComposer(true)

		case key.Matches(msg, m.keys.RACI):
			if !policy.CanEditAccountable(m.user, *m.task) {
				m.err = ErrorMessage(policy.ErrNotAuthorized)
				return m, nil
			}
			m.mode = modeRACI
			m.clearMessages()
			m.form = m.buildRACIForm()
			return m, m.form.Init()

		case key.Matches(msg, m.keys.DueDate):
			if !policy.CanRequestDueDate(m.user, *m.task) {
				if policy.IsTerminal(m.task.Status) {
					m.err = ErrorMessage(policy.ErrTaskClosed)
				} else {
					m.err = ErrorMessage(policy.ErrNotAuthorized)
				}
				return m, nil
			}
			m.mode = modeDueDate
			m.clearMessages()
			m.form = m.buildDueDateForm()
			return m, m.form.Init()
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) clearMessages() {
	m.notice = ""
	m.err = ""
}

// handleSaved applies a backend answer. Answers for another mandate are
// dropped.
func (m Model) handleSaved(msg TaskSavedMsg) (Model, tea.Cmd) {
	if m.task == nil || msg.TaskID != m.task.ID {
		return m, nil
	}
	m.saving = false
	if msg.Err != nil {
		m.err = ErrorMessage(msg.Err)
		switch m.mode {
		case modeRACI:
			m.form = m.buildRACIForm()
			return m, m.form.Init()
		case modeDueDate:
			m.form = m.buildDueDateForm()
			return m, m.form.Init()
		}
		return m, nil
	}

	m.mode = modeView
	m.form = nil
	m.err = ""
	m.notice = msg.Notice
	if msg.Task != nil {
		t := *msg.Task
		m.task = &t
	}
	m.fb.newDate = ""
	m.fb.reason = ""
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) openComposer(withStatus bool) (Model, tea.Cmd) {
	if err := m.checkCanUpdate(); err != nil {
		m.err = ErrorMessage(err)
		return m, nil
	}
	m.mode = modeCompose
	m.clearMessages()
	cmd := m.composer.open(m.user.Role)
	if withStatus {
		m.composer.cycleStatus()
	}
	return m, cmd
}

func (m Model) checkCanUpdate() error {
	if policy.IsTerminal(m.task.Status) {
		return policy.ErrTaskClosed
	}
	if !policy.CanUpdate(m.user, *m.task) {
		return policy.ErrNotAuthorized
	}
	return nil
}

func (m Model) updateCompose(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.composer.edit(msg, m.roster)
	}
	if m.saving {
		return m, nil
	}

	if m.composer.pickerOpen() {
		switch keyMsg.String() {
		case "up", "ctrl+p":
			m.composer.movePicker(-1)
			return m, nil
		case "down", "ctrl+n":
			m.composer.movePicker(1)
			return m, nil
		case "enter", "tab":
			m.composer.pick()
			return m, nil
		}
	}

	switch keyMsg.String() {
	case "esc":
		m.mode = modeView
		m.composer.input.Blur()
		m.composer.evidence.Blur()
		return m, nil

	case "ctrl+t":
		m.composer.cycleStatus()
		return m, nil

	case "ctrl+o":
		return m, m.composer.toggleEvidence()

	case "ctrl+s":
		draft, evidencePath := m.composer.draft(m.roster)
		if err := policy.ValidateUpdate(m.user, *m.task, draft); err != nil {
			m.err = ErrorMessage(err)
			return m, nil
		}
		m.err = ""
		m.saving = true
		id := m.task.ID
		return m, func() tea.Msg {
			return SubmitUpdateMsg{TaskID: id, Draft: draft, EvidencePath: evidencePath}
		}
	}

	return m, m.composer.edit(msg, m.roster)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.saving || m.form == nil {
		return m, nil
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.mode = modeView
		m.form = nil
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.mode = modeView
		m.form = nil
		return m, nil

	case huh.StateCompleted:
		if m.mode == modeRACI {
			return m.submitRACI()
		}
		return m.submitDueDate()
	}
	return m, cmd
}

func (m Model) submitRACI() (Model, tea.Cmd) {
	id := m.fb.accountableID
	if id == m.task.RACI.Accountable.ID {
		m.mode = modeView
		m.form = nil
		return m, nil
	}
	if err := policy.ValidateAccountable(m.user, *m.task, id, m.roster); err != nil {
		m.err = ErrorMessage(err)
		m.form = m.buildRACIForm()
		return m, m.form.Init()
	}
	m.saving = true
	taskID := m.task.ID
	return m, func() tea.Msg { return UpdateRACIMsg{TaskID: taskID, AccountableID: id} }
}

// submitDueDate validates locally; an incomplete request reopens the form
// without contacting the backend.
func (m Model) submitDueDate() (Model, tea.Cmd) {
	req := m.dueDateRequest()
	if err := policy.ValidateDueDateRequest(m.user, *m.task, req); err != nil {
		m.err = ErrorMessage(err)
		m.form = m.buildDueDateForm()
		return m, m.form.Init()
	}
	m.err = ""
	m.saving = true
	taskID := m.task.ID
	return m, func() tea.Msg { return RequestDueDateMsg{TaskID: taskID, Request: req} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Tidak ada mandat dipilih")
	}

	var body string
	switch m.mode {
	case modeCompose:
		body = lipgloss.JoinVertical(lipgloss.Left,
			theme.TitleStyle.Render(m.task.Title), "",
			m.composer.view(m.width, m.task.RequiresEvidence))
	case modeRACI, modeDueDate:
		body = lipgloss.JoinVertical(lipgloss.Left,
			theme.TitleStyle.Render(m.task.Title), "",
			m.form.View())
	default:
		body = m.viewport.View()
	}

	footer := ""
	switch {
	case m.saving:
		footer = theme.DimmedStyle.Render("Menyimpan...")
	case m.err != "":
		footer = theme.ErrorStyle.Render(m.err)
	case m.notice != "":
		footer = theme.SuccessStyle.Render(m.notice)
	}
	if footer == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}
	task := m.task
	var sections []string

	sections = append(sections, theme.TitleStyle.Render(task.Title))

	badges := []string{
		theme.StatusStyle(task.Status).Render(string(task.Status)),
		theme.PriorityStyle(task.Priority).Render(string(task.Priority)),
	}
	if task.IsOverdue(m.now()) {
		badges = append(badges, theme.OverdueStyle.Render("OVERDUE"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	meta := func(label, value string) {
		sections = append(sections, fmt.Sprintf("%s %s",
			theme.LabelStyle.Render(fmt.Sprintf("%-14s", label+":")),
			theme.ValueStyle.Render(value)))
	}
	meta("Rapat", task.MeetingDate)
	due := task.DueDate
	if task.WasRescheduled() {
		due += theme.DimmedStyle.Render(" (semula " + task.OriginalDueDate + ")")
	}
	meta("Due date", due)
	meta("Dibuat oleh", task.CreatedBy.Name)
	if task.RequiresEvidence {
		meta("Bukti", "wajib dilampirkan")
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))

	sections = append(sections, "", separator, "", theme.TitleStyle.Render("RACI"))
	meta("Accountable", task.RACI.Accountable.Name)
	meta("Responsible", names(task.RACI.Responsible))
	meta("Consulted", names(task.RACI.Consulted))
	meta("Informed", names(task.RACI.Informed))

	sections = append(sections, "", separator, "", theme.TitleStyle.Render("Deskripsi"))
	if task.Description == "" {
		sections = append(sections, theme.DimmedStyle.Italic(true).Render("Tidak ada deskripsi"))
	} else {
		sections = append(sections, lipgloss.NewStyle().Width(m.width-4).Render(task.Description))
	}

	sections = append(sections, "", separator, "",
		theme.TitleStyle.Render(fmt.Sprintf("Riwayat Pembaruan (%d)", len(task.Updates))), "")
	if len(task.Updates) == 0 {
		sections = append(sections, theme.DimmedStyle.Render("Belum ada pembaruan."))
	}

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	for _, u := range task.Updates {
		header := fmt.Sprintf("%s  %s", authorStyle.Render(u.User.Name),
			theme.DimmedStyle.Render(u.Date.Local().Format("2006-01-02 15:04")))
		if u.SuggestedStatus != "" {
			header += "  " + theme.StatusStyle(u.SuggestedStatus).Render("→ "+string(u.SuggestedStatus))
		}
		sections = append(sections, header,
			lipgloss.NewStyle().Width(m.width-4).Render(u.Content))
		if u.HasEvidence() {
			sections = append(sections, theme.DimmedStyle.Render("⎘ "+u.EvidenceFileName))
		}
		sections = append(sections, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func names(users []model.User) string {
	if len(users) == 0 {
		return "-"
	}
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return strings.Join(out, ", ")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.composer.input.SetWidth(width - 4)
	m.composer.evidence.Width = width - 12
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
