package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carenote/carenote/internal/handler/dto"
	"github.com/carenote/carenote/internal/service"
)

// IdempotencyKeyHeader carries the client's retry key on mark-done.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// ReminderHandler handles HTTP requests for reminder operations.
type ReminderHandler struct {
	svc    *service.ReminderService
	logger *slog.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(svc *service.ReminderService, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/reminders.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	completedLimit := 0
	if l := r.URL.Query().Get("completed_limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			completedLimit = parsed
		}
	}

	listing, err := h.svc.List(r.Context(), owner)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToReminderListResponse(listing, completedLimit))
}

// Create handles POST /api/reminders.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req dto.CreateReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.svc.Create(r.Context(), owner, req.ToInput())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReminderEnvelope{
		Reminder: dto.ToReminderResponse(view.Reminder, view.Status),
	})
}

// Get handles GET /api/reminders/{id}.
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReminderEnvelope{
		Reminder: dto.ToReminderResponse(view.Reminder, view.Status),
	})
}

// MarkDone handles POST /api/reminders/{id}/done.
func (h *ReminderHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		writeError(w, http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key is too long")
		return
	}

	result, err := h.svc.MarkDone(r.Context(), owner, chi.URLParam(r, "id"), key)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	if result.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeJSON(w, http.StatusOK, dto.ToMarkDoneResponse(result))
}

// Completions handles GET /api/reminders/{id}/completions.
func (h *ReminderHandler) Completions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	completions, err := h.svc.Completions(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CompletionListResponse{Completions: completions})
}
