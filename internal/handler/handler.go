// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/carenote/carenote/internal/auth"
	"github.com/carenote/carenote/internal/handler/dto"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/service"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON reads the request body into v. It writes the error response
// itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body is too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// ownerID returns the authenticated user id or writes a 401.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.UserIDFromContext(r.Context())
	if id == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return "", false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: verr.Fields(),
		})
	case errors.Is(err, service.ErrReminderNotFound):
		writeError(w, http.StatusNotFound, "REMINDER_NOT_FOUND", "Reminder not found")
	case errors.Is(err, service.ErrHealthRecordNotFound):
		writeError(w, http.StatusNotFound, "HEALTH_RECORD_NOT_FOUND", "Health record not found")
	case errors.Is(err, service.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, "CONCURRENCY_CONFLICT", "Reminder was changed by another request; reload and retry")
	case errors.Is(err, service.ErrCompletionInProgress):
		writeError(w, http.StatusConflict, "COMPLETION_IN_PROGRESS", "A request with this Idempotency-Key is still in progress")
	default:
		logger.Error("internal_error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
