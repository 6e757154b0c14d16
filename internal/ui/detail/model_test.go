package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/policy"
)

var (
	secretary = model.User{ID: 1, Name: "Sekretaris Perusahaan", Role: model.RoleSecretary}
	dewi      = model.User{ID: 2, Name: "Dewi Lestari", Role: model.RoleUnit, Division: "Keuangan"}
	budi      = model.User{ID: 3, Name: "Budi Santoso", Role: model.RoleUnit, Division: "Operasional"}
	roster    = []model.User{secretary, dewi, budi}
)

func testTask() model.Task {
	return model.Task{
		ID:       10,
		Title:    "Audit laporan keuangan Q3",
		Status:   model.StatusInProgress,
		Priority: model.PriorityHigh,
		DueDate:  "2026-11-01",
		RACI: model.RACIMatrix{
			Accountable: dewi,
			Responsible: []model.User{budi},
		},
		RequiresEvidence: true,
	}
}

func newTestModel(user model.User, task model.Task) Model {
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetUser(user, roster)
	m.SetTask(task)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func Test_Compose_MentionPickerFiltersAndApplies(t *testing.T) {
	m := newTestModel(dewi, testTask())

	m, _ = press(t, m, runes("c"), runes("@"))
	require.Equal(t, modeCompose, m.mode)
	require.True(t, m.composer.pickerOpen())
	assert.Len(t, m.composer.picker, len(roster))

	m, _ = press(t, m, runes("bu"))
	require.Len(t, m.composer.picker, 1)
	assert.Equal(t, budi.ID, m.composer.picker[0].ID)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.composer.pickerOpen())
	assert.Equal(t, "@Budi Santoso ", m.composer.input.Value())
	assert.Equal(t, []int64{budi.ID}, m.composer.mentions.IDs())

	m, cmd := press(t, m, runes("mohon cek"), tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	msg, ok := cmd().(SubmitUpdateMsg)
	require.True(t, ok)
	assert.Equal(t, int64(10), msg.TaskID)
	assert.Equal(t, "@Budi Santoso mohon cek", msg.Draft.Content)
	assert.Equal(t, []int64{budi.ID}, msg.Draft.Mentions)
	assert.True(t, m.saving)
}

func Test_Compose_EmptyContentRejected(t *testing.T) {
	m := newTestModel(dewi, testTask())

	m, cmd := press(t, m, runes("c"), tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, "Isi pembaruan tidak boleh kosong.", m.err)
	assert.False(t, m.saving)
}

func Test_Compose_StatusKeyPreselectsFirstOption(t *testing.T) {
	m := newTestModel(dewi, testTask())

	m, _ = press(t, m, runes("s"))
	require.Equal(t, modeCompose, m.mode)
	assert.Equal(t, model.StatusOnTrack, m.composer.status())
	assert.NotContains(t, m.composer.statuses, model.StatusClosed)
}

func Test_Compose_ClosedMandateRefused(t *testing.T) {
	task := testTask()
	task.Status = model.StatusClosed
	m := newTestModel(secretary, task)

	m, _ = press(t, m, runes("c"))
	assert.Equal(t, modeView, m.mode)
	assert.Equal(t, "Mandat sudah CLOSED.", m.err)
}

func Test_Compose_OutsiderRefused(t *testing.T) {
	outsider := model.User{ID: 9, Name: "Rina Wijaya", Role: model.RoleUnit}
	m := newTestModel(outsider, testTask())

	m, _ = press(t, m, runes("c"))
	assert.Equal(t, modeView, m.mode)
	assert.Equal(t, ErrorMessage(policy.ErrNotAuthorized), m.err)
}

func Test_TaskSaved_DropsAnswerForOtherMandate(t *testing.T) {
	m := newTestModel(dewi, testTask())
	m.saving = true

	other := testTask()
	other.ID = 99
	other.Title = "Lain"
	m, _ = press(t, m, TaskSavedMsg{TaskID: 99, Task: &other, Notice: MsgUpdateSaved})

	assert.Equal(t, int64(10), m.TaskID())
	assert.Equal(t, "Audit laporan keuangan Q3", m.task.Title)
	assert.Empty(t, m.notice)
	assert.True(t, m.saving)
}

func Test_TaskSaved_ReplacesTaskAndShowsNotice(t *testing.T) {
	m := newTestModel(dewi, testTask())
	m, _ = press(t, m, runes("c"))
	m.saving = true

	saved := testTask()
	saved.Status = model.StatusPendingClosing
	m, _ = press(t, m, TaskSavedMsg{TaskID: 10, Task: &saved, Notice: MsgUpdateSaved})

	assert.Equal(t, modeView, m.mode)
	assert.False(t, m.saving)
	assert.Equal(t, model.StatusPendingClosing, m.task.Status)
	assert.Equal(t, MsgUpdateSaved, m.notice)
}

func Test_TaskSaved_ErrorKeepsComposer(t *testing.T) {
	m := newTestModel(dewi, testTask())
	m, _ = press(t, m, runes("c"), runes("draf"))
	m.saving = true

	m, _ = press(t, m, TaskSavedMsg{TaskID: 10, Err: policy.ErrNotAuthorized})

	assert.Equal(t, modeCompose, m.mode)
	assert.Equal(t, "draf", m.composer.input.Value())
	assert.Equal(t, ErrorMessage(policy.ErrNotAuthorized), m.err)
}

func Test_DueDate_IncompleteRequestStaysLocal(t *testing.T) {
	m := newTestModel(dewi, testTask())
	m, _ = press(t, m, runes("d"))
	require.Equal(t, modeDueDate, m.mode)

	m.fb.newDate = "2026-12-01"
	m.fb.reason = "  "
	m, _ = m.submitDueDate()

	assert.Equal(t, policy.DueDateIncompleteMessage, m.err)
	assert.Equal(t, modeDueDate, m.mode)
	assert.False(t, m.saving)
}

func Test_DueDate_CompleteRequestEmitted(t *testing.T) {
	m := newTestModel(dewi, testTask())
	m, _ = press(t, m, runes("d"))

	m.fb.newDate = "2026-12-01"
	m.fb.reason = "Menunggu hasil audit eksternal"
	m, cmd := m.submitDueDate()
	require.NotNil(t, cmd)

	msg, ok := cmd().(RequestDueDateMsg)
	require.True(t, ok)
	assert.Equal(t, int64(10), msg.TaskID)
	assert.Equal(t, "2026-12-01", msg.Request.NewDate)
	assert.Equal(t, "Menunggu hasil audit eksternal", msg.Request.Reason)
	assert.True(t, m.saving)
}

func Test_DueDate_SecretaryCannotRequest(t *testing.T) {
	m := newTestModel(secretary, testTask())

	m, _ = press(t, m, runes("d"))
	assert.Equal(t, modeView, m.mode)
	assert.Equal(t, ErrorMessage(policy.ErrNotAuthorized), m.err)
}

func Test_RACI_OnlySecretaryOrAccountable(t *testing.T) {
	m := newTestModel(budi, testTask())
	m, _ = press(t, m, runes("a"))
	assert.Equal(t, modeView, m.mode)
	assert.Equal(t, ErrorMessage(policy.ErrNotAuthorized), m.err)

	m = newTestModel(secretary, testTask())
	m, _ = press(t, m, runes("a"))
	assert.Equal(t, modeRACI, m.mode)
	assert.Equal(t, dewi.ID, m.fb.accountableID)
}

func Test_RACI_UnchangedAccountableClosesForm(t *testing.T) {
	m := newTestModel(secretary, testTask())
	m, _ = press(t, m, runes("a"))

	m, cmd := m.submitRACI()
	assert.Nil(t, cmd)
	assert.Equal(t, modeView, m.mode)
}

func Test_RACI_ReassignEmitted(t *testing.T) {
	m := newTestModel(secretary, testTask())
	m, _ = press(t, m, runes("a"))

	m.fb.accountableID = budi.ID
	m, cmd := m.submitRACI()
	require.NotNil(t, cmd)
	assert.Equal(t, UpdateRACIMsg{TaskID: 10, AccountableID: budi.ID}, cmd())
	assert.True(t, m.saving)
}

func Test_ErrorMessage_Mapping(t *testing.T) {
	assert.Empty(t, ErrorMessage(nil))
	assert.Equal(t, policy.DueDateIncompleteMessage, ErrorMessage(policy.ErrDueDateIncomplete))
	assert.Equal(t, "Gagal menyimpan perubahan.", ErrorMessage(assert.AnError))
}
