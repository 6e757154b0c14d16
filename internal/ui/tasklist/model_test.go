package tasklist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
)

var (
	secretary = model.User{ID: 1, Name: "Sekretaris Perusahaan", Role: model.RoleSecretary}
	dewi      = model.User{ID: 2, Name: "Dewi Lestari", Role: model.RoleUnit}
	budi      = model.User{ID: 3, Name: "Budi Santoso", Role: model.RoleUnit}
	roster    = []model.User{secretary, dewi, budi}
)

func testTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Audit keuangan", Status: model.StatusInProgress, RACI: model.RACIMatrix{Accountable: dewi}},
		{ID: 2, Title: "Rekrutmen SDM", Status: model.StatusClosed, RACI: model.RACIMatrix{Accountable: budi}},
		{ID: 3, Title: "Audit operasional", Status: model.StatusOnTrack, RACI: model.RACIMatrix{Accountable: budi}},
	}
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func newTestList(role model.Role) Model {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetData(testTasks(), roster, role)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func Test_Visible_HidesClosedByDefault(t *testing.T) {
	m := newTestList(model.RoleSecretary)
	assert.Equal(t, []int64{1, 3}, ids(m.Visible()))
}

func Test_ToggleClosed_SecretaryOnly(t *testing.T) {
	m := newTestList(model.RoleUnit)
	m, _ = m.Update(runes("H"))
	assert.Equal(t, []int64{1, 3}, ids(m.Visible()))

	m = newTestList(model.RoleSecretary)
	m, _ = m.Update(runes("H"))
	assert.Equal(t, []int64{1, 3, 2}, ids(m.Visible()))
	assert.Equal(t, "termasuk CLOSED", m.FilterSummary())
}

func Test_UnitFilter_CyclesLeaders(t *testing.T) {
	m := newTestList(model.RoleSecretary)

	m, _ = m.Update(runes("u"))
	assert.Equal(t, []int64{1}, ids(m.Visible()))
	assert.Equal(t, "unit: Dewi Lestari", m.FilterSummary())

	m, _ = m.Update(runes("u"))
	assert.Equal(t, []int64{3}, ids(m.Visible()))

	m, _ = m.Update(runes("u"))
	assert.Equal(t, []int64{1, 3}, ids(m.Visible()))
	assert.Empty(t, m.FilterSummary())
}

func Test_Search_FiltersWhileTyping(t *testing.T) {
	m := newTestList(model.RoleUnit)

	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())

	m, _ = m.Update(runes("OPERA"))
	assert.Equal(t, []int64{3}, ids(m.Visible()))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Equal(t, []int64{1, 3}, ids(m.Visible()))
}

func Test_Select_EmitsSelectedTask(t *testing.T) {
	m := newTestList(model.RoleUnit)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedTaskMsg{TaskID: 1}, cmd())
}

func Test_ReplaceTask_MovesClosedMandateOut(t *testing.T) {
	m := newTestList(model.RoleUnit)

	closed := testTasks()[0]
	closed.Status = model.StatusClosed
	m.ReplaceTask(closed)

	assert.Equal(t, []int64{3}, ids(m.Visible()))
}
