package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/store"
)

// SeedUsers creates the configured roster when the user table is empty.
// It returns the number of users created.
func SeedUsers(ctx context.Context, users store.UserStore, seed []model.SeedUser, logger *zap.Logger) (int, error) {
	logger = logging.OrNop(logger)

	n, err := users.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Debug("roster already seeded", zap.Int("users", n))
		return 0, nil
	}

	created := 0
	for _, su := range seed {
		if su.Username == "" || su.Password == "" {
			return created, fmt.Errorf("seed user %q: username and password are required", su.Username)
		}
		role := su.Role
		if role == "" {
			role = model.RoleUnit
		}
		if !role.Valid() {
			return created, fmt.Errorf("seed user %s: invalid role %q", su.Username, role)
		}
		hash, err := HashPassword(su.Password)
		if err != nil {
			return created, err
		}
		name := su.Name
		if name == "" {
			name = su.Username
		}
		_, err = users.CreateUser(ctx, store.UserRecord{
			User: model.User{
				Username: su.Username,
				Name:     name,
				Role:     role,
				Division: su.Division,
				PhotoURL: su.PhotoURL,
			},
			PasswordHash: hash,
		})
		if err != nil {
			return created, fmt.Errorf("seeding user %s: %w", su.Username, err)
		}
		created++
	}
	logger.Info("roster seeded", zap.Int("users", created))
	return created, nil
}
