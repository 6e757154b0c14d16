package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/bod-watchlist/internal/model"
)

// ErrNotFound is returned when a lookup by id or key matches nothing.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned when a write is rejected before touching the
// database.
var ErrInvalidInput = errors.New("invalid input")

// TaskFilter narrows task queries. Zero values match everything.
type TaskFilter struct {
	Search        string
	AccountableID int64
	Status        model.Status
}

// UserRecord is a user together with the stored password hash.
// The hash never leaves the backend.
type UserRecord struct {
	model.User
	PasswordHash string
}

// Store defines the persistence interface for the roster, mandates with
// their RACI parties and update feed, notifications, and client key-values.
type Store interface {
	UserStore
	TaskStore
	NotificationStore
	KVStore
	Close() error
}

// UserStore persists the roster.
type UserStore interface {
	CreateUser(ctx context.Context, rec UserRecord) (model.User, error)
	GetUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*UserRecord, error)
	CountUsers(ctx context.Context) (int, error)
}

// TaskStore persists mandates. Tasks are never deleted.
type TaskStore interface {
	CreateTasks(ctx context.Context, inputs []model.NewTaskInput, createdBy int64, now time.Time) ([]model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)
	SetAccountable(ctx context.Context, taskID, userID int64) error
	AppendUpdateWithStatus(ctx context.Context, taskID int64, update model.TaskUpdate, status model.Status) (model.TaskUpdate, error)
	AmendDueDateWithNote(ctx context.Context, taskID int64, newDate string, note model.TaskUpdate) (model.TaskUpdate, error)
}

// NotificationStore persists the shared notification list.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	GetNotifications(ctx context.Context, targetUserID int64) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, targetUserID int64) (int64, error)
}

// KVStore is a small string key-value table used for client state.
type KVStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}
