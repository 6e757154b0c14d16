// Package dashboard aggregates mandates for the board overview: status
// counts, search and unit filtering, the active/closed split and the
// per-leader demography.
package dashboard

import (
	"sort"
	"strings"

	"github.com/nhle/bod-watchlist/internal/model"
)

// Stats is the count of mandates in each status plus the total.
type Stats struct {
	Total    int
	ByStatus map[model.Status]int
}

// Count returns the number of mandates in status s.
func (s Stats) Count(status model.Status) int {
	return s.ByStatus[status]
}

// Summarize counts tasks per status. Every known status is present in the
// result, possibly with zero.
func Summarize(tasks []model.Task) Stats {
	stats := Stats{
		Total:    len(tasks),
		ByStatus: make(map[model.Status]int, len(model.AllStatuses)),
	}
	for _, s := range model.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, t := range tasks {
		stats.ByStatus[t.Status]++
	}
	return stats
}

// Filter keeps tasks whose title contains query case-insensitively and,
// when unitID is non-zero, whose accountable is that unit leader.
func Filter(tasks []model.Task, query string, unitID int64) []model.Task {
	q := strings.ToLower(query)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		if unitID != 0 && t.RACI.Accountable.ID != unitID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Partition splits tasks into open and closed mandates, keeping order.
func Partition(tasks []model.Task) (active, closed []model.Task) {
	for _, t := range tasks {
		if t.IsClosed() {
			closed = append(closed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, closed
}

// VisibleClosed reports whether the closed archive should be shown. The
// archive toggle is offered to the secretary only.
func VisibleClosed(role model.Role, toggled bool) bool {
	return role == model.RoleSecretary && toggled
}

// DemographyFromTasks derives one row per accountable leader with their
// mandate count per status, ordered by SortDemography.
func DemographyFromTasks(tasks []model.Task) []model.LeaderDemography {
	rows := make(map[int64]*model.LeaderDemography)
	for _, t := range tasks {
		leader := t.RACI.Accountable
		if leader.ID == 0 {
			continue
		}
		row, ok := rows[leader.ID]
		if !ok {
			row = newRow(leader)
			rows[leader.ID] = row
		}
		row.Counts[t.Status]++
	}

	out := make([]model.LeaderDemography, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	SortDemography(out)
	return out
}

// IncludeIdleLeaders appends a zero-count row for every unit leader in
// users that has no row yet, and re-sorts.
func IncludeIdleLeaders(rows []model.LeaderDemography, users []model.User) []model.LeaderDemography {
	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		seen[row.ID] = true
	}
	for _, u := range users {
		if u.Role != model.RoleUnit || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		rows = append(rows, *newRow(u))
	}
	SortDemography(rows)
	return rows
}

func newRow(leader model.User) *model.LeaderDemography {
	name := leader.FirstName()
	if name == "" {
		name = "User"
	}
	row := &model.LeaderDemography{
		ID:         leader.ID,
		Name:       name,
		FullName:   leader.Name,
		Division:   leader.DivisionLabel(),
		PhotoURL:   leader.PhotoURL,
		AvatarSeed: leader.AvatarSeed,
		Counts:     make(map[model.Status]int, len(model.AllStatuses)),
	}
	for _, s := range model.AllStatuses {
		row.Counts[s] = 0
	}
	return row
}

// SortDemography orders rows by full name, then id.
func SortDemography(rows []model.LeaderDemography) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FullName != rows[j].FullName {
			return rows[i].FullName < rows[j].FullName
		}
		return rows[i].ID < rows[j].ID
	})
}
