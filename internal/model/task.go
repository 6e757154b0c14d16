package model

import "time"

// Status is the lifecycle state of a mandate.
type Status string

// Wire values for the mandate lifecycle.
const (
	StatusOnTrack        Status = "ON TRACK"
	StatusInProgress     Status = "IN PROGRESS"
	StatusPending        Status = "PENDING"
	StatusStagnant       Status = "STAGNANT"
	StatusPendingClosing Status = "PENDING CLOSING"
	StatusClosed         Status = "CLOSED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusOnTrack,
	StatusInProgress,
	StatusPending,
	StatusStagnant,
	StatusPendingClosing,
	StatusClosed,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Priority is the urgency level assigned to a mandate.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// AllPriorities lists every priority from lowest to highest.
var AllPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RequiresEvidence reports whether mandates of this priority must attach
// evidence to their progress updates.
func (p Priority) RequiresEvidence() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

// DateLayout is the wire format for meeting and due dates.
const DateLayout = "2006-01-02"

// RACIMatrix assigns the Responsible, Accountable, Consulted and Informed
// parties of a mandate. Accountable is always a single user.
type RACIMatrix struct {
	Accountable User   `json:"accountable"`
	Responsible []User `json:"responsible"`
	Consulted   []User `json:"consulted"`
	Informed    []User `json:"informed"`
}

// IsResponsible reports whether userID is among the responsible users.
func (m RACIMatrix) IsResponsible(userID int64) bool {
	for _, u := range m.Responsible {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// TaskUpdate is a single append-only entry in a mandate's progress feed.
type TaskUpdate struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Content          string    `json:"content"`
	User             User      `json:"user"`
	Mentions         []int64   `json:"mentions"`
	SuggestedStatus  Status    `json:"suggestedStatus,omitempty"`
	EvidenceBase64   string    `json:"evidenceBase64,omitempty"`
	EvidenceFileName string    `json:"evidenceFileName,omitempty"`
}

// HasEvidence reports whether an evidence blob is attached.
func (u TaskUpdate) HasEvidence() bool {
	return u.EvidenceBase64 != ""
}

// Task is a board mandate tracked through the status lifecycle.
type Task struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	RACI             RACIMatrix   `json:"raci"`
	Priority         Priority     `json:"priority"`
	Status           Status       `json:"status"`
	MeetingDate      string       `json:"meetingDate"`
	DueDate          string       `json:"dueDate"`
	OriginalDueDate  string       `json:"originalDueDate"`
	CreatedAt        time.Time    `json:"createdAt"`
	CreatedBy        User         `json:"createdBy"`
	Updates          []TaskUpdate `json:"updates"`
	RequiresEvidence bool         `json:"requiresEvidence"`
}

// Normalize recomputes derived fields. RequiresEvidence always follows
// the priority, whatever the backend sent.
func (t *Task) Normalize() {
	t.RequiresEvidence = t.Priority.RequiresEvidence()
}

// IsClosed reports whether the mandate reached the terminal status.
func (t Task) IsClosed() bool {
	return t.Status == StatusClosed
}

// WasRescheduled reports whether the due date has been amended.
func (t Task) WasRescheduled() bool {
	return t.OriginalDueDate != "" && t.OriginalDueDate != t.DueDate
}

// IsOverdue reports whether an open mandate is past its due date.
func (t Task) IsOverdue(now time.Time) bool {
	if t.IsClosed() || t.DueDate == "" {
		return false
	}
	due, err := time.ParseInLocation(DateLayout, t.DueDate, now.Location())
	if err != nil {
		return false
	}
	return due.AddDate(0, 0, 1).Before(now)
}
