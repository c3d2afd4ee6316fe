package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "snippet not found with id abc123"}
//
// This makes it easy for clients to parse errors — they always know what
// fields to expect, regardless of whether it's a 400, 404, or 500.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code MUST be set before writing the body. Once
// Encode calls w.Write() the headers are sent; changes after that are
// silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// This is where domain errors (from the service layer) get translated to
// HTTP. The service layer returns apperror.ErrValidation,
// apperror.ErrNotFound, etc. — it never knows about status codes. The
// mapping lives in exactly one place:
//
//	ErrValidation, ErrInvalidID → 400
//	ErrUnauthorized             → 401
//	ErrForbidden                → 403
//	ErrNotFound                 → 404
//	ErrConflict                 → 409
//	ErrTimeout                  → 504
//	anything else               → 500 (generic message, details stay server-side)
//
// errors.Is() walks the entire chain via Unwrap(), so a wrapped
// AppError still matches its sentinel.
func writeError(w http.ResponseWriter, err error) {
	// A request cancelled by its deadline surfaces as a raw context error
	// from the database driver. Map it to the timeout taxonomy before the
	// generic 500 fallback can swallow it.
	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{
			Error:   "timeout",
			Message: "the request timed out",
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidID):
			status = http.StatusBadRequest // 400
			errorType = "invalid_id"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		case errors.Is(err, apperror.ErrTimeout):
			status = http.StatusGatewayTimeout // 504
			errorType = "timeout"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error — return a generic 500.
	// NEVER expose internal error details to the client: the raw message
	// might contain SQL queries, file paths, or other sensitive info.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
