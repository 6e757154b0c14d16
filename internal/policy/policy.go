// Package policy holds the mandate lifecycle rules shared by the terminal
// client and the reference backend: who may propose which status, who may
// reassign the accountable party, and who may amend a due date.
package policy

import "github.com/nhle/bod-watchlist/internal/model"

// openStatuses is the menu offered to every authorised actor.
var openStatuses = []model.Status{
	model.StatusOnTrack,
	model.StatusInProgress,
	model.StatusPending,
	model.StatusStagnant,
	model.StatusPendingClosing,
}

// StatusOptions returns the statuses a user with the given role may pick.
// CLOSED is offered only to the secretary.
func StatusOptions(role model.Role) []model.Status {
	opts := make([]model.Status, len(openStatuses), len(openStatuses)+1)
	copy(opts, openStatuses)
	if role == model.RoleSecretary {
		opts = append(opts, model.StatusClosed)
	}
	return opts
}

// IsTerminal reports whether no further transition is possible from s.
func IsTerminal(s model.Status) bool {
	return s == model.StatusClosed
}

// CanUpdate reports whether user may append progress updates and propose a
// status for task: any secretary, the accountable, or a responsible party.
// Closed mandates accept no updates.
func CanUpdate(user model.User, task model.Task) bool {
	if IsTerminal(task.Status) {
		return false
	}
	if user.IsSecretary() {
		return true
	}
	return task.RACI.Accountable.ID == user.ID || task.RACI.IsResponsible(user.ID)
}

// CanEditAccountable reports whether user may replace the accountable party.
func CanEditAccountable(user model.User, task model.Task) bool {
	return user.IsSecretary() || task.RACI.Accountable.ID == user.ID
}

// CanRequestDueDate reports whether user may file a due-date amendment.
// Only unit leaders may, and only while the mandate is open.
func CanRequestDueDate(user model.User, task model.Task) bool {
	return user.Role == model.RoleUnit && !IsTerminal(task.Status)
}

// CanProposeStatus reports whether the given role may propose status s.
func CanProposeStatus(role model.Role, s model.Status) bool {
	for _, opt := range StatusOptions(role) {
		if opt == s {
			return true
		}
	}
	return false
}
