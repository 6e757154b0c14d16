package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/policy"
	"github.com/nhle/bod-watchlist/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: code, Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, policy.ErrTaskClosed):
		return http.StatusConflict, "task_closed"
	case errors.Is(err, policy.ErrNotAuthorized),
		errors.Is(err, policy.ErrCloseNotAllowed):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, policy.ErrEmptyUpdate),
		errors.Is(err, policy.ErrInvalidStatus),
		errors.Is(err, policy.ErrDueDateIncomplete),
		errors.Is(err, policy.ErrInvalidDate),
		errors.Is(err, policy.ErrUnknownAccountable),
		errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err as a JSON error. Server errors are logged and their
// detail is not exposed.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal server error"
	}
	writeError(w, status, code, msg)
}
