package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		string(i.Task.Status),
		i.Task.RACI.Accountable.Name,
		i.Task.DueDate,
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering mandates.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Task, index == m.Index()))
}

func (d ItemDelegate) renderLine(task model.Task, isSelected bool) string {
	now := time.Now
	if d.now != nil {
		now = d.now
	}

	prefix := "●"
	if task.IsClosed() {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(task.Status).Render(fmt.Sprintf("%-15s", task.Status))
	priBadge := theme.PriorityStyle(task.Priority).Render(priorityLabel(task.Priority))

	leader := lipgloss.NewStyle().
		Foreground(theme.ColorBlue).
		Render(task.RACI.Accountable.FirstName())

	dueStr := ""
	if task.DueDate != "" {
		dueStr = theme.DueDateStyle.Render(" " + task.DueDate)
		if task.WasRescheduled() {
			dueStr += theme.DimmedStyle.Render("*")
		}
	}

	overdueStr := ""
	if task.IsOverdue(now()) {
		overdueStr = theme.OverdueStyle.Render(" OVERDUE")
	}

	evidence := ""
	if task.RequiresEvidence {
		evidence = theme.DimmedStyle.Render(" ⎘")
	}

	line := fmt.Sprintf(
		"%s %s %s %s  %s%s%s%s",
		prefix, statusBadge, priBadge, task.Title,
		leader, dueStr, overdueStr, evidence,
	)

	if task.IsClosed() {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "URG"
	case model.PriorityHigh:
		return "HI "
	case model.PriorityMedium:
		return "MED"
	case model.PriorityLow:
		return "LOW"
	default:
		return "?  "
	}
}
