package model

// Candidate is a mandate proposed by the AI extraction of meeting notes,
// awaiting review before bulk import.
type Candidate struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AccountableID  int64    `json:"accountableId"`
	ResponsibleIDs []int64  `json:"responsibleIds"`
	ConsultedIDs   []int64  `json:"consultedIds"`
	InformedIDs    []int64  `json:"informedIds"`
	Priority       Priority `json:"priority"`
	MeetingDate    string   `json:"meetingDate"`
	DueDate        string   `json:"dueDate"`

	// Resolved parties, populated when the roster is known.
	Accountable *User  `json:"accountable,omitempty"`
	Responsible []User `json:"responsible,omitempty"`
	Consulted   []User `json:"consulted,omitempty"`
	Informed    []User `json:"informed,omitempty"`
}

// RequiresEvidence follows the same rule as Task.RequiresEvidence.
func (c Candidate) RequiresEvidence() bool {
	return c.Priority.RequiresEvidence()
}

// Resolve fills the resolved parties from a roster. Unknown ids are
// skipped; an unknown accountable leaves Accountable nil.
func (c *Candidate) Resolve(users []User) {
	if u, ok := FindUser(users, c.AccountableID); ok {
		c.Accountable = &u
	} else {
		c.Accountable = nil
	}
	c.Responsible = resolveUsers(users, c.ResponsibleIDs)
	c.Consulted = resolveUsers(users, c.ConsultedIDs)
	c.Informed = resolveUsers(users, c.InformedIDs)
}

func resolveUsers(users []User, ids []int64) []User {
	resolved := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := FindUser(users, id); ok {
			resolved = append(resolved, u)
		}
	}
	return resolved
}

// NewTaskInput is one entry of a bulk-create request.
type NewTaskInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AccountableID  int64    `json:"accountableId"`
	Priority       Priority `json:"priority"`
	MeetingDate    string   `json:"meetingDate"`
	DueDate        string   `json:"dueDate"`
	ResponsibleIDs []int64  `json:"responsibleIds"`
	ConsultedIDs   []int64  `json:"consultedIds"`
	InformedIDs    []int64  `json:"informedIds"`
}

// ToInput converts a reviewed candidate into a bulk-create entry.
// A blank meeting date falls back to the provided default.
func (c Candidate) ToInput(defaultMeetingDate string) NewTaskInput {
	meetingDate := c.MeetingDate
	if meetingDate == "" {
		meetingDate = defaultMeetingDate
	}
	accountableID := c.AccountableID
	if accountableID == 0 && c.Accountable != nil {
		accountableID = c.Accountable.ID
	}
	return NewTaskInput{
		Title:          c.Title,
		Description:    c.Description,
		AccountableID:  accountableID,
		Priority:       c.Priority,
		MeetingDate:    meetingDate,
		DueDate:        c.DueDate,
		ResponsibleIDs: idsOr(c.ResponsibleIDs, c.Responsible),
		ConsultedIDs:   idsOr(c.ConsultedIDs, c.Consulted),
		InformedIDs:    idsOr(c.InformedIDs, c.Informed),
	}
}

func idsOr(ids []int64, users []User) []int64 {
	if len(ids) > 0 {
		return ids
	}
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

// LeaderDemography is the per-leader count of mandates by status.
type LeaderDemography struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	FullName   string         `json:"fullName"`
	Division   string         `json:"division"`
	PhotoURL   string         `json:"photoUrl,omitempty"`
	AvatarSeed string         `json:"avatar_seed"`
	Counts     map[Status]int `json:"counts"`
}

// Total returns the number of mandates the leader is accountable for.
func (d LeaderDemography) Total() int {
	total := 0
	for _, n := range d.Counts {
		total += n
	}
	return total
}
