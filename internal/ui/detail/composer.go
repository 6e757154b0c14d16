package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/mention"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// maxPickerRows caps the mention picker height.
const maxPickerRows = 5

// composer is the progress update editor with its @-mention picker.
type composer struct {
	input    textarea.Model
	evidence textinput.Model

	evidenceFocused bool

	// statuses[0] is the empty "no change" choice.
	statuses  []model.Status
	statusIdx int

	mentions  *mention.Set
	picker    []model.User
	pickerIdx int
}

func newComposer(width int) composer {
	ta := textarea.New()
	ta.Placeholder = "Tulis pembaruan progres... (@ untuk menandai)"
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(4)
	ta.CharLimit = 4000

	ev := textinput.New()
	ev.Placeholder = "path berkas bukti (opsional)"
	ev.Prompt = "bukti: "
	ev.Width = width - 12

	return composer{input: ta, evidence: ev, mentions: &mention.Set{}}
}

// open resets the composer for a new draft.
func (c *composer) open(role model.Role) tea.Cmd {
	c.input.Reset()
	c.evidence.Reset()
	c.evidence.Blur()
	c.evidenceFocused = false
	c.statuses = append([]model.Status{""}, policy.StatusOptions(role)...)
	c.statusIdx = 0
	c.mentions.Reset()
	c.picker = nil
	c.pickerIdx = 0
	return c.input.Focus()
}

func (c composer) pickerOpen() bool { return len(c.picker) > 0 }

func (c composer) status() model.Status {
	if c.statusIdx < 0 || c.statusIdx >= len(c.statuses) {
		return ""
	}
	return c.statuses[c.statusIdx]
}

func (c *composer) cycleStatus() {
	if len(c.statuses) == 0 {
		return
	}
	c.statusIdx = (c.statusIdx + 1) % len(c.statuses)
}

func (c *composer) toggleEvidence() tea.Cmd {
	c.evidenceFocused = !c.evidenceFocused
	c.picker = nil
	if c.evidenceFocused {
		c.input.Blur()
		return c.evidence.Focus()
	}
	c.evidence.Blur()
	return c.input.Focus()
}

// pick applies the highlighted picker entry to the text and closes the
// picker.
func (c *composer) pick() {
	if !c.pickerOpen() {
		return
	}
	u := c.picker[c.pickerIdx]
	c.input.SetValue(mention.Apply(c.input.Value(), u))
	c.input.CursorEnd()
	c.mentions.Add(u.ID)
	c.picker = nil
	c.pickerIdx = 0
}

func (c *composer) movePicker(delta int) {
	if !c.pickerOpen() {
		return
	}
	c.pickerIdx = (c.pickerIdx + delta + len(c.picker)) % len(c.picker)
}

// edit forwards a key to the focused input and re-evaluates the picker
// whenever the text changes.
func (c *composer) edit(msg tea.Msg, roster []model.User) tea.Cmd {
	var cmd tea.Cmd
	if c.evidenceFocused {
		c.evidence, cmd = c.evidence.Update(msg)
		return cmd
	}

	before := c.input.Value()
	c.input, cmd = c.input.Update(msg)
	text := c.input.Value()
	if text == before {
		return cmd
	}

	if _, ok := mention.Trigger(text); ok {
		c.picker = mention.Candidates(roster, mention.Query(text))
		if c.pickerIdx >= len(c.picker) {
			c.pickerIdx = 0
		}
	} else {
		c.picker = nil
		c.pickerIdx = 0
	}
	return cmd
}

// draft builds the update to submit.
func (c composer) draft(roster []model.User) (policy.UpdateDraft, string) {
	return policy.UpdateDraft{
		Content:  strings.TrimSpace(c.input.Value()),
		Status:   c.status(),
		Mentions: mention.Resolve(c.mentions.IDs(), roster),
	}, strings.TrimSpace(c.evidence.Value())
}

func (c composer) view(width int, evidenceRequired bool) string {
	var sections []string
	sections = append(sections, theme.TitleStyle.Render("Pembaruan Progres"))
	sections = append(sections, c.input.View())

	if c.pickerOpen() {
		sections = append(sections, c.renderPicker(width))
	}

	statusLabel := "tidak berubah"
	if s := c.status(); s != "" {
		statusLabel = theme.StatusStyle(s).Render(string(s))
	}
	sections = append(sections, fmt.Sprintf("%s %s", theme.LabelStyle.Render("Status:"), statusLabel))

	evidenceHint := ""
	if evidenceRequired {
		evidenceHint = theme.DimmedStyle.Render(" (prioritas tinggi: lampirkan bukti)")
	}
	sections = append(sections, c.evidence.View()+evidenceHint)

	if n := c.mentions.Len(); n > 0 {
		sections = append(sections, theme.DimmedStyle.Render(fmt.Sprintf("%d orang ditandai", n)))
	}

	sections = append(sections, theme.HelpStyle.Render("ctrl+s kirim | ctrl+t status | ctrl+o bukti | esc batal"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (c composer) renderPicker(width int) string {
	start := 0
	if c.pickerIdx >= maxPickerRows {
		start = c.pickerIdx - maxPickerRows + 1
	}
	end := min(start+maxPickerRows, len(c.picker))

	var rows []string
	for i := start; i < end; i++ {
		u := c.picker[i]
		line := fmt.Sprintf("@%s  %s", u.Name, theme.DimmedStyle.Render(u.DivisionLabel()))
		if i == c.pickerIdx {
			rows = append(rows, theme.SelectedItemStyle.Render(line))
		} else {
			rows = append(rows, theme.ListItemStyle.Render(line))
		}
	}
	return theme.BorderStyle.Width(min(width-4, 48)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
