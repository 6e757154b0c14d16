package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Priority_RequiresEvidence(t *testing.T) {
	cases := map[Priority]bool{
		PriorityLow:    false,
		PriorityMedium: false,
		PriorityHigh:   true,
		PriorityUrgent: true,
	}
	for p, want := range cases {
		assert.Equal(t, want, p.RequiresEvidence(), string(p))
	}
}

func Test_Status_Valid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("ON_TRACK").Valid())
	assert.False(t, Status("").Valid())
}

func Test_Task_Normalize_OverridesWireFlag(t *testing.T) {
	var task Task
	raw := `{"id":7,"title":"Audit","priority":"URGENT","status":"ON TRACK","requiresEvidence":false}`
	require.NoError(t, json.Unmarshal([]byte(raw), &task))

	task.Normalize()
	assert.True(t, task.RequiresEvidence)

	task.Priority = PriorityLow
	task.Normalize()
	assert.False(t, task.RequiresEvidence)
}

func Test_Task_IsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	task := Task{DueDate: "2025-03-09", Status: StatusOnTrack}
	assert.True(t, task.IsOverdue(now))

	task.DueDate = "2025-03-10"
	assert.False(t, task.IsOverdue(now), "due today is not overdue")

	task.DueDate = "2025-03-01"
	task.Status = StatusClosed
	assert.False(t, task.IsOverdue(now), "closed mandates are never overdue")
}

func Test_Task_WasRescheduled(t *testing.T) {
	assert.False(t, Task{DueDate: "2025-01-01"}.WasRescheduled())
	assert.True(t, Task{DueDate: "2025-02-01", OriginalDueDate: "2025-01-01"}.WasRescheduled())
}

func Test_Candidate_ToInput(t *testing.T) {
	roster := []User{
		{ID: 1, Name: "Sekretaris", Role: RoleSecretary},
		{ID: 2, Name: "Dewi Lestari", Role: RoleUnit},
		{ID: 3, Name: "Budi Santoso", Role: RoleUnit},
	}
	c := Candidate{
		Title:          "Review SLA",
		AccountableID:  2,
		ResponsibleIDs: []int64{3, 99},
		Priority:       PriorityHigh,
	}
	c.Resolve(roster)

	require.NotNil(t, c.Accountable)
	assert.Equal(t, "Dewi Lestari", c.Accountable.Name)
	require.Len(t, c.Responsible, 1)
	assert.Equal(t, int64(3), c.Responsible[0].ID)
	assert.True(t, c.RequiresEvidence())

	in := c.ToInput("2025-04-01")
	assert.Equal(t, "2025-04-01", in.MeetingDate)
	assert.Equal(t, int64(2), in.AccountableID)
	assert.Equal(t, []int64{3, 99}, in.ResponsibleIDs)
	assert.Empty(t, in.ConsultedIDs)
}

func Test_User_FirstName(t *testing.T) {
	assert.Equal(t, "Dewi", User{Name: "Dewi Lestari"}.FirstName())
	assert.Equal(t, "budi", User{Username: "budi"}.FirstName())
	assert.Equal(t, "UNIT", User{Role: RoleUnit}.DivisionLabel())
}
