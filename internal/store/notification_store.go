package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/bod-watchlist/internal/model"
)

type notificationRow struct {
	ID           string    `db:"id"`
	TargetUserID int64     `db:"target_user_id"`
	FromUserID   int64     `db:"from_user_id"`
	Message      string    `db:"message"`
	TaskID       int64     `db:"task_id"`
	TaskTitle    string    `db:"task_title"`
	IsRead       int       `db:"is_read"`
	CreatedAt    time.Time `db:"created_at"`
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) (model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, target_user_id, from_user_id, message,
			task_id, task_title, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.TargetUserID, n.FromUser.ID, n.Message,
		n.TaskID, n.TaskTitle, boolToInt(n.IsRead), n.CreatedAt.UTC(),
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	return n, nil
}

// GetNotifications returns the notifications addressed to targetUserID,
// newest first. A zero targetUserID returns every notification.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	targetUserID int64,
) ([]model.Notification, error) {
	query := "SELECT * FROM notifications"
	var args []interface{}
	if targetUserID != 0 {
		query += " WHERE target_user_id = ?"
		args = append(args, targetUserID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	if len(rows) == 0 {
		return []model.Notification{}, nil
	}

	users, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		from, ok := users[r.FromUserID]
		if !ok {
			from = model.User{ID: r.FromUserID}
		}
		out = append(out, model.Notification{
			ID:           r.ID,
			TargetUserID: r.TargetUserID,
			FromUser:     from,
			Message:      r.Message,
			TaskID:       r.TaskID,
			TaskTitle:    r.TaskTitle,
			CreatedAt:    r.CreatedAt,
			IsRead:       r.IsRead != 0,
		})
	}
	return out, nil
}

// MarkAllRead flips every unread notification of targetUserID to read and
// returns how many changed.
func (s *SQLiteStore) MarkAllRead(ctx context.Context, targetUserID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE target_user_id = ? AND is_read = 0",
		targetUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications of user %d as read: %w", targetUserID, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
