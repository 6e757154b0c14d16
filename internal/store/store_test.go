package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/store"
	"github.com/nhle/bod-watchlist/tests/testutil"
)

func Test_Users_CreateAndLookup(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	roster := testutil.SeedRoster(t, s, "hash")

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rec, err := s.GetUserByUsername(ctx, "dewi")
	require.NoError(t, err)
	assert.Equal(t, roster.Dewi.ID, rec.ID)
	assert.Equal(t, "hash", rec.PasswordHash)
	assert.NotEmpty(t, rec.AvatarSeed)

	_, err = s.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateUser(ctx, store.UserRecord{User: model.User{Username: "x", Role: "ADMIN"}})
	assert.Error(t, err)
}

func Test_CreateTasks_WithParties(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	created, err := s.CreateTasks(ctx, []model.NewTaskInput{
		{
			Title:          "Audit klinik",
			AccountableID:  r.Dewi.ID,
			Priority:       model.PriorityUrgent,
			MeetingDate:    "2025-05-01",
			DueDate:        "2025-06-01",
			ResponsibleIDs: []int64{r.Budi.ID, r.Rina.ID},
			InformedIDs:    []int64{r.Secretary.ID},
		},
		{
			Title:         "Rekrutmen dokter",
			AccountableID: r.Budi.ID,
			Priority:      model.PriorityLow,
		},
	}, r.Secretary.ID, now)
	require.NoError(t, err)
	require.Len(t, created, 2)

	first := created[0]
	assert.Equal(t, model.StatusOnTrack, first.Status)
	assert.Equal(t, "Dewi Lestari", first.RACI.Accountable.Name)
	require.Len(t, first.RACI.Responsible, 2)
	assert.Equal(t, r.Budi.ID, first.RACI.Responsible[0].ID)
	assert.Equal(t, r.Rina.ID, first.RACI.Responsible[1].ID)
	assert.Empty(t, first.RACI.Consulted)
	assert.Len(t, first.RACI.Informed, 1)
	assert.True(t, first.RequiresEvidence)
	assert.Equal(t, r.Secretary.ID, first.CreatedBy.ID)
	assert.Empty(t, first.Updates)

	assert.False(t, created[1].RequiresEvidence)
}

func Test_CreateTasks_RejectsWholeBatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")

	_, err := s.CreateTasks(ctx, []model.NewTaskInput{
		{Title: "ok", AccountableID: r.Dewi.ID, Priority: model.PriorityLow},
		{Title: "bad", AccountableID: 999, Priority: model.PriorityLow},
	}, r.Secretary.ID, time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	tasks, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func Test_GetTasks_Filter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")

	_, err := s.CreateTasks(ctx, []model.NewTaskInput{
		{Title: "Audit Klinik", AccountableID: r.Dewi.ID, Priority: model.PriorityLow},
		{Title: "audit vendor", AccountableID: r.Budi.ID, Priority: model.PriorityLow},
		{Title: "Renovasi", AccountableID: r.Dewi.ID, Priority: model.PriorityLow},
	}, r.Secretary.ID, time.Now())
	require.NoError(t, err)

	got, err := s.GetTasks(ctx, store.TaskFilter{Search: "audit"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.GetTasks(ctx, store.TaskFilter{Search: "audit", AccountableID: r.Dewi.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Audit Klinik", got[0].Title)

	got, err = s.GetTasks(ctx, store.TaskFilter{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.GetTasks(ctx, store.TaskFilter{Search: "audit_"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_AmendDueDate_KeepsFirstOriginal(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")

	created, err := s.CreateTasks(ctx, []model.NewTaskInput{
		{Title: "Audit", AccountableID: r.Dewi.ID, Priority: model.PriorityHigh, DueDate: "2025-06-01"},
	}, r.Secretary.ID, time.Now())
	require.NoError(t, err)
	id := created[0].ID

	note := model.TaskUpdate{Content: "Perubahan due date", User: r.Dewi}
	_, err = s.AmendDueDateWithNote(ctx, id, "2025-07-01", note)
	require.NoError(t, err)
	_, err = s.AmendDueDateWithNote(ctx, id, "2025-08-01", note)
	require.NoError(t, err)

	task, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", task.DueDate)
	assert.Equal(t, "2025-06-01", task.OriginalDueDate)
	assert.Len(t, task.Updates, 2)

	_, err = s.AmendDueDateWithNote(ctx, 999, "2025-08-01", note)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.AmendDueDateWithNote(ctx, id, "01/09/2025", note)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func Test_AppendUpdate_AndStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")

	created, err := s.CreateTasks(ctx, []model.NewTaskInput{
		{Title: "Audit", AccountableID: r.Dewi.ID, Priority: model.PriorityLow},
	}, r.Secretary.ID, time.Now())
	require.NoError(t, err)
	id := created[0].ID

	base := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	_, err = s.AppendUpdateWithStatus(ctx, id, model.TaskUpdate{
		Content:         "Mulai audit @Budi Santoso",
		User:            r.Dewi,
		Mentions:        []int64{r.Budi.ID},
		SuggestedStatus: model.StatusInProgress,
		Date:            base,
	}, model.StatusInProgress)
	require.NoError(t, err)
	_, err = s.AppendUpdateWithStatus(ctx, id, model.TaskUpdate{
		Content:          "Bukti terlampir",
		User:             r.Budi,
		EvidenceBase64:   "ZGF0YQ==",
		EvidenceFileName: "bukti.pdf",
		Date:             base.Add(time.Hour),
	}, "")
	require.NoError(t, err)

	task, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, task.Status)
	require.Len(t, task.Updates, 2)
	assert.Equal(t, []int64{r.Budi.ID}, task.Updates[0].Mentions)
	assert.Equal(t, "Dewi Lestari", task.Updates[0].User.Name)
	assert.True(t, task.Updates[1].HasEvidence())
	assert.Empty(t, task.Updates[1].Mentions)

	_, err = s.AppendUpdateWithStatus(ctx, 999, model.TaskUpdate{Content: "x", User: r.Dewi}, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.AppendUpdateWithStatus(ctx, id, model.TaskUpdate{Content: "x", User: r.Dewi}, "DONE")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	task, err = s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, task.Updates, 2)
}

func Test_Notifications_MarkAllRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedRoster(t, s, "")

	for _, target := range []int64{r.Budi.ID, r.Budi.ID, r.Rina.ID} {
		_, err := s.CreateNotification(ctx, model.Notification{
			TargetUserID: target,
			FromUser:     r.Dewi,
			Message:      "Dewi menyebut Anda",
			TaskID:       1,
			TaskTitle:    "Audit",
		})
		require.NoError(t, err)
	}

	budi, err := s.GetNotifications(ctx, r.Budi.ID)
	require.NoError(t, err)
	require.Len(t, budi, 2)
	assert.Equal(t, "Dewi Lestari", budi[0].FromUser.Name)
	assert.False(t, budi[0].IsRead)

	n, err := s.MarkAllRead(ctx, r.Budi.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	budi, err = s.GetNotifications(ctx, r.Budi.ID)
	require.NoError(t, err)
	for _, item := range budi {
		assert.True(t, item.IsRead)
	}

	rina, err := s.GetNotifications(ctx, r.Rina.ID)
	require.NoError(t, err)
	require.Len(t, rina, 1)
	assert.False(t, rina[0].IsRead, "other users are untouched")
}

func Test_KV(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetValue(ctx, "bt_token")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetValue(ctx, "bt_token", "a"))
	require.NoError(t, s.SetValue(ctx, "bt_token", "b"))
	v, err := s.GetValue(ctx, "bt_token")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, s.DeleteValue(ctx, "bt_token"))
	require.NoError(t, s.DeleteValue(ctx, "bt_token"))
	_, err = s.GetValue(ctx, "bt_token")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
