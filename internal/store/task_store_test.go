package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/model"
)

// newTaskFixture opens an in-memory store holding one unit leader and one
// open mandate due 2025-06-01.
func newTaskFixture(t *testing.T) (*SQLiteStore, model.User, int64) {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	dewi, err := s.CreateUser(ctx, UserRecord{User: model.User{
		Username: "dewi",
		Name:     "Dewi Lestari",
		Role:     model.RoleUnit,
	}})
	require.NoError(t, err)

	created, err := s.CreateTasks(ctx, []model.NewTaskInput{{
		Title:         "Audit",
		AccountableID: dewi.ID,
		Priority:      model.PriorityHigh,
		DueDate:       "2025-06-01",
	}}, dewi.ID, time.Now())
	require.NoError(t, err)
	return s, dewi, created[0].ID
}

func Test_AppendUpdateWithStatus_RollsBackWhenStatusFails(t *testing.T) {
	s, dewi, id := newTaskFixture(t)
	ctx := context.Background()

	_, err := s.db.Exec(`CREATE TRIGGER lock_status BEFORE UPDATE OF status ON tasks
		BEGIN SELECT RAISE(ABORT, 'status locked'); END`)
	require.NoError(t, err)

	_, err = s.AppendUpdateWithStatus(ctx, id, model.TaskUpdate{Content: "Selesai", User: dewi}, model.StatusPendingClosing)
	require.Error(t, err)

	task, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, task.Updates)
	assert.Equal(t, model.StatusOnTrack, task.Status)
}

func Test_AmendDueDateWithNote_RollsBackWhenNoteFails(t *testing.T) {
	s, dewi, id := newTaskFixture(t)
	ctx := context.Background()

	_, err := s.db.Exec(`CREATE TRIGGER lock_feed BEFORE INSERT ON task_updates
		BEGIN SELECT RAISE(ABORT, 'feed locked'); END`)
	require.NoError(t, err)

	_, err = s.AmendDueDateWithNote(ctx, id, "2025-07-01", model.TaskUpdate{Content: "Mundur", User: dewi})
	require.Error(t, err)

	task, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", task.DueDate)
	assert.Empty(t, task.OriginalDueDate)
	assert.Empty(t, task.Updates)
}
