// Package http provides the JSON API server and handlers.
//
// This file holds the response helpers: JSON encoding and the mapping from
// service errors to status codes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
	"pocketbook/internal/services"
	"pocketbook/internal/session"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Validation messages are returned to
// the caller; internal errors are logged and hidden.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed", applog.FieldError, err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func statusFor(err error) (int, string) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.Error()
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized, "sign in required"
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrNoChanges):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ports.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// badRequestError marks malformed input that never reached validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}
