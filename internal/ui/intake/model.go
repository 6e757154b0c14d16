// Package intake renders the AI-noted meeting intake: notes editor,
// recording controls and the review list of extracted mandates.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	flowpkg "github.com/nhle/bod-watchlist/internal/intake"
	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// Timeouts for the blocking steps.
const (
	transcribeTimeout = 2 * time.Minute
	analyzeTimeout    = time.Minute
	commitTimeout     = 30 * time.Second
)

// CloseMsg signals the parent to leave the intake view.
type CloseMsg struct{}

// DistributedMsg is sent after mandates were created from the review list.
type DistributedMsg struct {
	Tasks []model.Task
}

type op int

const (
	opRecord op = iota
	opTranscribe
	opAnalyze
	opCommit
)

// flowDoneMsg reports the end of a blocking flow operation.
type flowDoneMsg struct {
	op      op
	err     error
	created []model.Task
}

// Model is the intake view over an intake.Flow.
type Model struct {
	flow     *flowpkg.Flow
	keys     *keys.KeyMap
	notes    textarea.Model
	preview  viewport.Model
	snap     flowpkg.Snapshot
	selected int
	blocking string
	width    int
	height   int
}

// New creates the intake view.
func New(flow *flowpkg.Flow, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Tempel atau ketik notulensi rapat, atau rekam dengan ctrl+r..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width - 4)
	ta.SetHeight(bodyHeight(height))

	vp := viewport.New(width-4, bodyHeight(height))
	vp.Style = lipgloss.NewStyle()

	m := Model{
		flow:    flow,
		keys:    k,
		notes:   ta,
		preview: vp,
		width:   width,
		height:  height,
	}
	m.sync()
	return m
}

// Focus gives keyboard focus to the notes editor.
func (m *Model) Focus() tea.Cmd {
	m.sync()
	return m.notes.Focus()
}

// Snapshot returns the flow state last rendered.
func (m Model) Snapshot() flowpkg.Snapshot { return m.snap }

// sync pulls the flow state into the view.
func (m *Model) sync() {
	m.snap = m.flow.Snapshot()
	if m.notes.Value() != m.snap.Notes && m.snap.State == flowpkg.Idle {
		m.notes.SetValue(m.snap.Notes)
	}
	if m.selected >= len(m.snap.Preview) {
		m.selected = max(len(m.snap.Preview)-1, 0)
	}
	m.preview.SetContent(m.renderPreview())
}

// Update handles messages for the intake view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case flowDoneMsg:
		return m.handleDone(msg)

	case tea.KeyMsg:
		if m.blocking != "" {
			m.blocking = ""
			return m, nil
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m Model) handleDone(msg flowDoneMsg) (Model, tea.Cmd) {
	m.sync()
	switch {
	case msg.op == opRecord && errors.Is(msg.err, flowpkg.ErrMicrophoneUnavailable):
		m.blocking = flowpkg.MsgMicrophoneDenied
	case msg.op == opCommit && msg.err == nil:
		m.notes.Reset()
		created := msg.created
		return m, func() tea.Msg { return DistributedMsg{Tasks: created} }
	case msg.op == opAnalyze && msg.err == nil:
		m.selected = 0
		m.notes.Blur()
		m.preview.GotoTop()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	state := m.snap.State
	if state.Busy() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Record):
		switch state {
		case flowpkg.Idle:
			if err := m.flow.SetNotes(m.notes.Value()); err != nil {
				return m, nil
			}
			return m.run(opRecord, func(ctx context.Context) ([]model.Task, error) {
				return nil, m.flow.StartRecording(ctx)
			}, 0)
		case flowpkg.Recording:
			m.snap.State = flowpkg.Transcribing
			return m.run(opTranscribe, func(ctx context.Context) ([]model.Task, error) {
				_, err := m.flow.StopAndTranscribe(ctx)
				return nil, err
			}, transcribeTimeout)
		}
		return m, nil

	case key.Matches(msg, m.keys.Analyze):
		if state != flowpkg.Idle {
			return m, nil
		}
		if err := m.flow.SetNotes(m.notes.Value()); err != nil {
			return m, nil
		}
		m.snap.State = flowpkg.Analyzing
		return m.run(opAnalyze, func(ctx context.Context) ([]model.Task, error) {
			_, err := m.flow.Analyze(ctx)
			return nil, err
		}, analyzeTimeout)

	case key.Matches(msg, m.keys.Distribute):
		if !m.snap.CanDistribute() {
			return m, nil
		}
		m.snap.State = flowpkg.Committing
		return m.run(opCommit, func(ctx context.Context) ([]model.Task, error) {
			return m.flow.Commit(ctx)
		}, commitTimeout)
	}

	switch state {
	case flowpkg.Recording:
		if msg.String() == "esc" {
			_ = m.flow.CancelRecording()
			m.sync()
		}
		return m, nil

	case flowpkg.Reviewing:
		return m.handleReviewKey(msg)
	}

	if msg.String() == "esc" {
		_ = m.flow.SetNotes(m.notes.Value())
		m.notes.Blur()
		return m, func() tea.Msg { return CloseMsg{} }
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		_ = m.flow.Discard()
		m.sync()
		return m, m.notes.Focus()

	case key.Matches(msg, m.keys.Remove):
		if err := m.flow.RemoveCandidate(m.selected); err == nil {
			m.sync()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snap.Preview)-1 {
			m.selected++
			m.preview.SetContent(m.renderPreview())
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
			m.preview.SetContent(m.renderPreview())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

// run executes a blocking flow operation off the event loop. A zero
// timeout leaves the context unbounded.
func (m Model) run(o op, fn func(context.Context) ([]model.Task, error), timeout time.Duration) (Model, tea.Cmd) {
	return m, func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		created, err := fn(ctx)
		return flowDoneMsg{op: o, err: err, created: created}
	}
}

// View renders the intake view.
func (m Model) View() string {
	title := theme.TitleStyle.Render("AI Noted: Notulensi Rapat Direksi")

	var state string
	switch m.snap.State {
	case flowpkg.Recording:
		state = theme.ErrorStyle.Render("● MEREKAM") + theme.DimmedStyle.Render("  ctrl+r berhenti & transkripsi | esc batal")
	case flowpkg.Transcribing:
		state = theme.DimmedStyle.Render("Mentranskripsi rekaman...")
	case flowpkg.Analyzing:
		state = theme.DimmedStyle.Render("Menganalisis notulensi...")
	case flowpkg.Committing:
		state = theme.DimmedStyle.Render("Mendistribusikan mandat...")
	}

	sections := []string{title}
	if state != "" {
		sections = append(sections, state)
	}

	if m.snap.State == flowpkg.Reviewing || m.snap.State == flowpkg.Committing {
		sections = append(sections,
			theme.LabelStyle.Render(fmt.Sprintf("Pratinjau mandat (%d)", len(m.snap.Preview))),
			m.preview.View())
	} else {
		sections = append(sections, m.notes.View())
	}

	if m.blocking != "" {
		sections = append(sections, theme.BorderStyle.
			BorderForeground(theme.ColorRed).
			Padding(0, 1).
			Render(theme.ErrorStyle.Render(m.blocking)+"\n"+theme.HelpStyle.Render("tekan sembarang tombol")))
	} else if msg := m.snap.Message; msg != "" {
		style := theme.ErrorStyle
		if msg == flowpkg.MsgDistributed {
			style = theme.SuccessStyle
		}
		sections = append(sections, style.Render(msg))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderPreview lists the candidate cards.
func (m Model) renderPreview() string {
	if len(m.snap.Preview) == 0 {
		return theme.DimmedStyle.Italic(true).Render("Tidak ada mandat yang terdeteksi dari notulensi.")
	}

	var cards []string
	for i, c := range m.snap.Preview {
		cards = append(cards, renderCandidate(c, i == m.selected, m.width-8))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderCandidate(c model.Candidate, selected bool, width int) string {
	accountable := theme.ErrorStyle.Render("(tidak dikenali)")
	if c.Accountable != nil {
		accountable = c.Accountable.Name
	}
	responsible := make([]string, len(c.Responsible))
	for i, u := range c.Responsible {
		responsible[i] = u.Name
	}

	lines := []string{
		theme.PriorityStyle(c.Priority).Render(string(c.Priority)) + "  " + theme.TitleStyle.Render(c.Title),
		theme.LabelStyle.Render("A: ") + accountable,
	}
	if len(responsible) > 0 {
		lines = append(lines, theme.LabelStyle.Render("R: ")+strings.Join(responsible, ", "))
	}
	dates := theme.LabelStyle.Render("Rapat: ") + orDash(c.MeetingDate) +
		theme.LabelStyle.Render("  Due: ") + orDash(c.DueDate)
	if c.RequiresEvidence() {
		dates += theme.DimmedStyle.Render("  ⎘ wajib bukti")
	}
	lines = append(lines, dates)

	style := theme.CardStyle.Width(max(width, 20))
	if selected {
		style = style.BorderForeground(theme.ColorBlue)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.notes.SetWidth(width - 4)
	m.notes.SetHeight(bodyHeight(height))
	m.preview.Width = width - 4
	m.preview.Height = bodyHeight(height)
	m.preview.SetContent(m.renderPreview())
}

func bodyHeight(height int) int {
	return max(height-8, 4)
}
