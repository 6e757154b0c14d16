// Package server is the reference REST backend for the watchlist: the
// system of record for the roster, mandates, updates and notifications.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/alert"
	"github.com/nhle/bod-watchlist/internal/logging"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/store"
)

// Extractor turns meeting notes into candidate mandates.
type Extractor interface {
	ExtractTasks(ctx context.Context, notes string, users []model.User) ([]model.Candidate, error)
}

// Config holds the server settings that are not collaborators.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Deps wires the server to storage and optional services.
type Deps struct {
	Store  store.Store
	AI     Extractor
	Alerts alert.Notifier
	Logger *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// alertTimeout bounds one out-of-band alert delivery.
const alertTimeout = 30 * time.Second

// Server serves the mandate API.
type Server struct {
	store   store.Store
	ai      Extractor
	alerts  alert.Notifier
	logger  *zap.Logger
	now     func() time.Time
	tokens  *tokenIssuer
	metrics *metrics
	router  chi.Router

	// pending tracks alert deliveries still running after their request.
	pending sync.WaitGroup
}

// New builds a server and its router.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server requires a store")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("server requires a jwt secret")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Alerts == nil {
		deps.Alerts = alert.Nop{}
	}

	s := &Server{
		store:   deps.Store,
		ai:      deps.AI,
		alerts:  deps.Alerts,
		logger:  logging.OrNop(deps.Logger),
		now:     deps.Now,
		metrics: newMetrics(),
	}
	s.tokens = newTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, s.now)
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(s.requireAuth)

		r.Get("/users", s.handleUsers)
		r.Get("/users/leader-demography", s.handleLeaderDemography)

		r.Get("/tasks", s.handleTasks)
		r.With(requireRole(model.RoleSecretary)).Post("/tasks/bulk-create", s.handleBulkCreate)
		r.Patch("/tasks/{id}/raci", s.handleUpdateRACI)
		r.Post("/tasks/{id}/update", s.handleAddUpdate)
		r.Patch("/tasks/{id}/update-date", s.handleUpdateDueDate)

		r.With(requireRole(model.RoleSecretary)).Post("/meeting/extract", s.handleExtract)

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/read", s.handleMarkRead)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("backend listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.pending.Wait()
	s.logger.Info("backend stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
