package server

import (
	"net/http"
	"strings"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/dashboard"
	"github.com/nhle/bod-watchlist/internal/store"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.GetUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleLeaderDemography counts mandates per accountable leader. Every
// unit leader appears, even with no mandates.
func (s *Server) handleLeaderDemography(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows := dashboard.IncludeIdleLeaders(dashboard.DemographyFromTasks(tasks), users)
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req api.ExtractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Notes) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "notes are empty")
		return
	}
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI assistant is not configured")
		return
	}

	users, err := s.store.GetUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	candidates, err := s.ai.ExtractTasks(r.Context(), req.Notes, users)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for i := range candidates {
		candidates[i].Resolve(users)
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	items, err := s.store.GetNotifications(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req api.MarkReadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	user := currentUser(r.Context())
	if req.UserID == 0 {
		req.UserID = user.ID
	}
	if req.UserID != user.ID && !user.IsSecretary() {
		writeError(w, http.StatusForbidden, "forbidden", "cannot mark another user's notifications")
		return
	}
	n, err := s.store.MarkAllRead(r.Context(), req.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
