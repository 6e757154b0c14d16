package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/session"
	"github.com/nhle/bod-watchlist/internal/store"
)

const tokenIssuerName = "bodwatch"

// claims are the access token claims. The subject is the user id.
type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{key: []byte(secret), ttl: ttl, now: now}
}

func (t *tokenIssuer) issue(user model.User) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("signing token for user %d: %w", user.ID, err)
	}
	return signed, nil
}

// validate returns the user id carried by a valid token.
func (t *tokenIssuer) validate(raw string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.key, nil
	},
		jwt.WithIssuer(tokenIssuerName),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return 0, errors.New("invalid token claims")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return id, nil
}

type contextKeyUser struct{}

// currentUser returns the authenticated user set by requireAuth.
func currentUser(ctx context.Context) model.User {
	u, _ := ctx.Value(contextKeyUser{}).(model.User)
	return u
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
			return
		}
		id, err := s.tokens.validate(raw)
		if err != nil {
			s.logger.Warn("rejected token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		user, err := s.store.GetUserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
				return
			}
			s.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser{}, *user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if currentUser(r.Context()).Role != role {
				writeError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("requires role %s", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", session.MsgCredentialsRequired)
		return
	}

	rec, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if rec == nil || bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(req.Password)) != nil {
		s.metrics.logins.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "unauthorized", session.MsgInvalidCredentials)
		return
	}

	token, err := s.tokens.issue(rec.User)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.logins.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", zap.Int64("user_id", rec.ID), zap.String("role", string(rec.Role)))
	writeJSON(w, http.StatusOK, api.LoginResponse{AccessToken: token, SafeUser: rec.User})
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
