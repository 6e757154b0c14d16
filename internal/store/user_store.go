package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/bod-watchlist/internal/model"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	AvatarSeed   string    `db:"avatar_seed"`
	PhotoURL     string    `db:"photo_url"`
	Division     string    `db:"division"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:         r.ID,
		Username:   r.Username,
		Name:       r.Name,
		Role:       model.Role(r.Role),
		AvatarSeed: r.AvatarSeed,
		PhotoURL:   r.PhotoURL,
		Division:   r.Division,
	}
}

const userColumns = `id, username, name, role, avatar_seed, photo_url, division, password_hash, created_at`

// CreateUser inserts a roster entry and returns it with its assigned id.
// A blank avatar seed is filled with a random one.
func (s *SQLiteStore) CreateUser(ctx context.Context, rec UserRecord) (model.User, error) {
	if strings.TrimSpace(rec.Username) == "" {
		return model.User{}, fmt.Errorf("username must not be empty")
	}
	if !rec.Role.Valid() {
		return model.User{}, fmt.Errorf("invalid role %q for user %s", rec.Role, rec.Username)
	}
	if rec.AvatarSeed == "" {
		rec.AvatarSeed = uuid.New().String()[:8]
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			username, name, role, avatar_seed, photo_url, division,
			password_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Username, rec.Name, string(rec.Role), rec.AvatarSeed,
		rec.PhotoURL, rec.Division, rec.PasswordHash, time.Now().UTC(),
	)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user %s: %w", rec.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("reading id of user %s: %w", rec.Username, err)
	}

	u := rec.User
	u.ID = id
	return u, nil
}

// GetUsers returns the full roster ordered by name.
func (s *SQLiteStore) GetUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, "SELECT "+userColumns+" FROM users ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

// GetUserByID retrieves a single user.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	u := row.toModel()
	return &u, nil
}

// GetUserByUsername retrieves a user with its password hash for login.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	return &UserRecord{User: row.toModel(), PasswordHash: row.PasswordHash}, nil
}

// CountUsers returns the roster size.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// userIndex loads the roster keyed by id.
func (s *SQLiteStore) userIndex(ctx context.Context) (map[int64]model.User, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[int64]model.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx, nil
}
