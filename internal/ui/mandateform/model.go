// Package mandateform is the secretary's form for entering a single mandate
// by hand.
package mandateform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// SubmitMsg is dispatched when the form is completed.
type SubmitMsg struct {
	Input model.NewTaskInput
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title          string
	description    string
	priority       model.Priority
	accountableID  int64
	responsibleIDs []int64
	consultedIDs   []int64
	informedIDs    []int64
	meetingDate    string
	dueDate        string
}

// Model is the Bubble Tea model for the new mandate form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	roster []model.User
	err    string
	now    func() time.Time
	width  int
	height int
}

// New creates a new mandate form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// SetRoster sets the users offered in the RACI selectors.
func (m *Model) SetRoster(users []model.User) {
	m.roster = users
}

// Start resets the bindings and builds a fresh form.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{
		priority:    model.PriorityMedium,
		meetingDate: m.now().Format(model.DateLayout),
	}
	m.err = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError shows a submission failure and reopens the form with the
// values already entered.
func (m *Model) SetError(msg string) tea.Cmd {
	m.err = msg
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Mandat Baru") + "\n" + m.form.View()
	if m.err != "" {
		content += "\n" + theme.ErrorStyle.Render(m.err)
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Judul").
				Placeholder("Apa yang harus dikerjakan?").
				Value(&m.fb.title).
				Validate(validateRequired("Judul")),
			huh.NewText().
				Title("Deskripsi").
				Placeholder("Detail opsional...").
				Value(&m.fb.description),
			huh.NewSelect[model.Priority]().
				Title("Prioritas").
				Options(priorityOptions()...).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Tanggal rapat").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.meetingDate).
				Validate(validateOptionalDate),
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.dueDate).
				Validate(validateRequiredDate),
		),
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title("Accountable").
				Options(m.userOptions()...).
				Value(&m.fb.accountableID).
				Validate(validateAccountable),
			huh.NewMultiSelect[int64]().
				Title("Responsible").
				Options(m.userOptions()...).
				Value(&m.fb.responsibleIDs),
			huh.NewMultiSelect[int64]().
				Title("Consulted").
				Options(m.userOptions()...).
				Value(&m.fb.consultedIDs),
			huh.NewMultiSelect[int64]().
				Title("Informed").
				Options(m.userOptions()...).
				Value(&m.fb.informedIDs),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func priorityOptions() []huh.Option[model.Priority] {
	opts := make([]huh.Option[model.Priority], len(model.AllPriorities))
	for i, p := range model.AllPriorities {
		label := string(p)
		if p.RequiresEvidence() {
			label += " (wajib bukti)"
		}
		opts[i] = huh.NewOption(label, p)
	}
	return opts
}

func (m *Model) userOptions() []huh.Option[int64] {
	opts := make([]huh.Option[int64], 0, len(m.roster))
	for _, u := range m.roster {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", u.Name, u.DivisionLabel()), u.ID))
	}
	return opts
}

// Input returns the mandate described by the current field values.
func (m Model) Input() model.NewTaskInput {
	return model.NewTaskInput{
		Title:          strings.TrimSpace(m.fb.title),
		Description:    strings.TrimSpace(m.fb.description),
		AccountableID:  m.fb.accountableID,
		Priority:       m.fb.priority,
		MeetingDate:    strings.TrimSpace(m.fb.meetingDate),
		DueDate:        strings.TrimSpace(m.fb.dueDate),
		ResponsibleIDs: m.fb.responsibleIDs,
		ConsultedIDs:   m.fb.consultedIDs,
		InformedIDs:    m.fb.informedIDs,
	}
}

func (m Model) handleSubmit() tea.Cmd {
	input := m.Input()
	return func() tea.Msg { return SubmitMsg{Input: input} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s wajib diisi", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return errors.New("format tanggal harus YYYY-MM-DD")
	}
	return nil
}

func validateRequiredDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("due date wajib diisi")
	}
	return validateOptionalDate(s)
}

func validateAccountable(id int64) error {
	if id == 0 {
		return errors.New("pilih accountable")
	}
	return nil
}
