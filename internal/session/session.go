// Package session owns the authenticated identity of the terminal client.
// A Manager is the single writer of session state; any number of Views may
// read it concurrently.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
)

// Persisted keys.
const (
	TokenKey = "bt_token"
	UserKey  = "bt_user"
)

// User-facing login messages.
const (
	MsgCredentialsRequired = "Username dan password wajib diisi"
	MsgInvalidCredentials  = "Username atau password salah"
)

var (
	ErrCredentialsRequired = errors.New("username and password are required")
	ErrInvalidCredentials  = errors.New("invalid username or password")
)

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
}

// State is a snapshot of the session.
type State struct {
	Token string
	User  model.User
}

// LoggedIn reports whether the snapshot carries a token and a user.
func (s State) LoggedIn() bool {
	return s.Token != "" && s.User.ID != 0
}

type shared struct {
	mu    sync.RWMutex
	state State
}

// View is a read-only handle on the session.
type View struct {
	s *shared
}

// State returns the current snapshot.
func (v View) State() State {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return v.s.state
}

// Token implements api.TokenSource.
func (v View) Token() string { return v.State().Token }

// User returns the logged-in user.
func (v View) User() model.User { return v.State().User }

// LoggedIn reports whether a user is signed in.
func (v View) LoggedIn() bool { return v.State().LoggedIn() }

// Manager mutates and persists the session.
type Manager struct {
	s      *shared
	vault  Vault
	logger *zap.Logger
}

// NewManager creates a logged-out manager persisting through vault.
func NewManager(vault Vault, logger *zap.Logger) *Manager {
	return &Manager{
		s:      &shared{},
		vault:  vault,
		logger: logging.OrNop(logger),
	}
}

// View returns a read-only handle sharing this manager's state.
func (m *Manager) View() View {
	return View{s: m.s}
}

// Restore loads the persisted session. Missing or unparseable values
// leave the session logged out; corrupt values and a token or user stored
// without its counterpart are also removed.
func (m *Manager) Restore(ctx context.Context) State {
	token, tokenErr := m.vault.Get(ctx, TokenKey)
	raw, userErr := m.vault.Get(ctx, UserKey)
	if tokenErr != nil || userErr != nil {
		for _, err := range []error{tokenErr, userErr} {
			if err != nil && !errors.Is(err, ErrMissing) {
				m.logger.Warn("reading persisted session", zap.Error(err))
			}
		}
		if halfStored(tokenErr, userErr) {
			m.logger.Warn("discarding incomplete persisted session")
			m.clearVault(ctx)
		}
		return m.set(State{})
	}

	user, err := decodeUser(raw)
	if err != nil || token == "" {
		m.logger.Warn("discarding corrupt persisted session", zap.Error(err))
		m.clearVault(ctx)
		return m.set(State{})
	}

	return m.set(State{Token: token, User: user})
}

// halfStored reports whether exactly one of the two session values was
// found.
func halfStored(tokenErr, userErr error) bool {
	return (tokenErr == nil && errors.Is(userErr, ErrMissing)) ||
		(userErr == nil && errors.Is(tokenErr, ErrMissing))
}

func decodeUser(raw string) (model.User, error) {
	if raw == "" || raw == "undefined" || raw == "null" {
		return model.User{}, fmt.Errorf("empty user value")
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return model.User{}, fmt.Errorf("decoding user: %w", err)
	}
	if u.ID == 0 || !u.Role.Valid() {
		return model.User{}, fmt.Errorf("incomplete user %q", u.Username)
	}
	return u, nil
}

// SignIn validates the credentials locally, authenticates, and persists
// the resulting session. Empty fields fail without a network call.
func (m *Manager) SignIn(ctx context.Context, auth Authenticator, username, password string) (State, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return m.View().State(), ErrCredentialsRequired
	}

	resp, err := auth.Login(ctx, username, password)
	if err != nil {
		if api.IsAuthError(err) {
			return m.View().State(), fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return m.View().State(), fmt.Errorf("signing in %s: %w", username, err)
	}

	if err := m.Login(ctx, resp.AccessToken, resp.SafeUser); err != nil {
		return m.View().State(), err
	}
	return m.View().State(), nil
}

// Login records and persists a session. The in-memory session is updated
// even if persisting fails.
func (m *Manager) Login(ctx context.Context, token string, user model.User) error {
	m.set(State{Token: token, User: user})

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := m.vault.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	if err := m.vault.Set(ctx, UserKey, string(raw)); err != nil {
		return fmt.Errorf("persisting user: %w", err)
	}
	return nil
}

// Logout clears the session in memory and in the vault.
func (m *Manager) Logout(ctx context.Context) {
	m.set(State{})
	m.clearVault(ctx)
}

func (m *Manager) clearVault(ctx context.Context) {
	for _, key := range []string{TokenKey, UserKey} {
		if err := m.vault.Delete(ctx, key); err != nil {
			m.logger.Warn("clearing persisted session", zap.String("key", key), zap.Error(err))
		}
	}
}

func (m *Manager) set(st State) State {
	m.s.mu.Lock()
	m.s.state = st
	m.s.mu.Unlock()
	return st
}

// LoginMessage maps a SignIn error to the text shown on the login screen.
func LoginMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialsRequired):
		return MsgCredentialsRequired
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	default:
		return "Gagal terhubung ke server"
	}
}
