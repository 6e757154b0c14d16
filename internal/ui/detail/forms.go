package detail

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/bod-watchlist/internal/policy"
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	accountableID int64
	newDate       string
	reason        string
}

func (m *Model) buildRACIForm() *huh.Form {
	opts := make([]huh.Option[int64], 0, len(m.roster))
	for _, u := range m.roster {
		opts = append(opts, huh.NewOption(u.Name+" ("+u.DivisionLabel()+")", u.ID))
	}
	m.fb.accountableID = m.task.RACI.Accountable.ID

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title("Accountable").
				Description("Pilih pimpinan yang bertanggung jawab atas mandat ini.").
				Options(opts...).
				Height(min(len(opts)+2, 10)).
				Value(&m.fb.accountableID),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

// buildDueDateForm keeps previously typed values so a rejected attempt can
// be corrected in place.
func (m *Model) buildDueDateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Due date baru").
				Description("Saat ini: "+m.task.DueDate).
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.newDate),
			huh.NewText().
				Title("Alasan perubahan").
				Lines(3).
				Value(&m.fb.reason),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) dueDateRequest() policy.DueDateRequest {
	return policy.DueDateRequest{
		NewDate: strings.TrimSpace(m.fb.newDate),
		Reason:  strings.TrimSpace(m.fb.reason),
	}
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
