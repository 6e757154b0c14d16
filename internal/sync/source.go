package sync

import (
	"context"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/store"
)

// NotificationSource is where the shared notification list lives.
type NotificationSource interface {
	Fetch(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) error
}

// APISource reads notifications from the REST backend.
type APISource struct {
	Client *api.Client
}

// Fetch implements NotificationSource.
func (s APISource) Fetch(ctx context.Context, _ int64) ([]model.Notification, error) {
	return s.Client.Notifications(ctx)
}

// MarkAllRead implements NotificationSource.
func (s APISource) MarkAllRead(ctx context.Context, userID int64) error {
	return s.Client.MarkNotificationsRead(ctx, userID)
}

// StoreSource reads notifications from a local SQLite store shared by
// every user of the machine.
type StoreSource struct {
	Store store.NotificationStore
}

// Fetch implements NotificationSource.
func (s StoreSource) Fetch(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.Store.GetNotifications(ctx, userID)
}

// MarkAllRead implements NotificationSource.
func (s StoreSource) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := s.Store.MarkAllRead(ctx, userID)
	return err
}
