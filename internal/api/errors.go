package api

import (
	"errors"
	"fmt"
)

// AuthError indicates that the backend rejected the credentials or the
// session token. It is returned when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	return fmt.Sprintf("api error (%d) on %s %s: %s", e.StatusCode, e.Method, e.Path, msg)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if IsAuthError(err) {
		return 401
	}
	return 0
}

// ErrorResponse is the JSON error body returned by the backend.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
