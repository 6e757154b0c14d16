package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/model"
)

var (
	dewi = model.User{ID: 2, Name: "Dewi Lestari", Role: model.RoleUnit, Division: "Keuangan"}
	budi = model.User{ID: 3, Name: "Budi Santoso", Role: model.RoleUnit}
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Audit Klinik Jakarta", Status: model.StatusOnTrack, RACI: model.RACIMatrix{Accountable: dewi}},
		{ID: 2, Title: "Renovasi gedung", Status: model.StatusStagnant, RACI: model.RACIMatrix{Accountable: budi}},
		{ID: 3, Title: "audit vendor", Status: model.StatusClosed, RACI: model.RACIMatrix{Accountable: dewi}},
		{ID: 4, Title: "Rekrutmen dokter", Status: model.StatusOnTrack, RACI: model.RACIMatrix{Accountable: budi}},
	}
}

func Test_Summarize(t *testing.T) {
	stats := Summarize(sampleTasks())
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Count(model.StatusOnTrack))
	assert.Equal(t, 1, stats.Count(model.StatusStagnant))
	assert.Equal(t, 1, stats.Count(model.StatusClosed))
	assert.Equal(t, 0, stats.Count(model.StatusPending))

	sum := 0
	for _, n := range stats.ByStatus {
		sum += n
	}
	assert.Equal(t, stats.Total, sum)
}

func Test_Filter_IsConjunctive(t *testing.T) {
	tasks := sampleTasks()

	got := Filter(tasks, "AUDIT", 0)
	require.Len(t, got, 2)

	got = Filter(tasks, "audit", budi.ID)
	assert.Empty(t, got)

	got = Filter(tasks, "", budi.ID)
	require.Len(t, got, 2)
	for _, task := range got {
		assert.Equal(t, budi.ID, task.RACI.Accountable.ID)
	}

	assert.Len(t, Filter(tasks, "", 0), len(tasks))
}

func Test_Partition(t *testing.T) {
	active, closed := Partition(sampleTasks())
	assert.Len(t, active, 3)
	require.Len(t, closed, 1)
	assert.Equal(t, int64(3), closed[0].ID)
}

func Test_VisibleClosed(t *testing.T) {
	assert.True(t, VisibleClosed(model.RoleSecretary, true))
	assert.False(t, VisibleClosed(model.RoleSecretary, false))
	assert.False(t, VisibleClosed(model.RoleUnit, true))
}

func Test_DemographyFromTasks(t *testing.T) {
	rows := DemographyFromTasks(sampleTasks())
	require.Len(t, rows, 2)

	assert.Equal(t, "Budi Santoso", rows[0].FullName)
	assert.Equal(t, "Budi", rows[0].Name)
	assert.Equal(t, "UNIT", rows[0].Division)
	assert.Equal(t, 1, rows[0].Counts[model.StatusStagnant])
	assert.Equal(t, 2, rows[0].Total())

	assert.Equal(t, "Keuangan", rows[1].Division)
	assert.Equal(t, 1, rows[1].Counts[model.StatusClosed])
	assert.Equal(t, 0, rows[1].Counts[model.StatusPending])
}

func Test_IncludeIdleLeaders(t *testing.T) {
	rows := DemographyFromTasks(sampleTasks())
	users := []model.User{
		{ID: 99, Name: "Sekretaris", Role: model.RoleSecretary},
		{ID: 50, Name: "Agus Salim", Role: model.RoleUnit, Division: "Hukum"},
		dewi,
	}
	out := IncludeIdleLeaders(rows, users)
	require.Len(t, out, 3)
	assert.Equal(t, "Agus Salim", out[0].FullName)
	assert.Equal(t, 0, out[0].Total())
	assert.Equal(t, "Hukum", out[0].Division)
}
