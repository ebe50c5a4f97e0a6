package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carenote/carenote/internal/handler/dto"
	"github.com/carenote/carenote/internal/service"
)

// HealthRecordHandler handles HTTP requests for health records.
type HealthRecordHandler struct {
	svc    *service.HealthRecordService
	logger *slog.Logger
}

// NewHealthRecordHandler creates a new HealthRecordHandler.
func NewHealthRecordHandler(svc *service.HealthRecordService, logger *slog.Logger) *HealthRecordHandler {
	return &HealthRecordHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/health.
func (h *HealthRecordHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	records, err := h.svc.List(r.Context(), owner, query.Get("type"), query.Get("q"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HealthRecordListResponse{Records: records})
}

// Create handles POST /api/health.
func (h *HealthRecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req dto.HealthRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.svc.Create(r.Context(), owner, req.ToInput())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.HealthRecordEnvelope{Record: rec})
}

// Get handles GET /api/health/{id}.
func (h *HealthRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	rec, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HealthRecordEnvelope{Record: rec})
}

// Update handles PUT /api/health/{id}.
func (h *HealthRecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req dto.HealthRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.svc.Update(r.Context(), owner, chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HealthRecordEnvelope{Record: rec})
}

// Delete handles DELETE /api/health/{id}.
func (h *HealthRecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
