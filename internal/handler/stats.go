package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carenote/carenote/internal/handler/dto"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/service"
)

const defaultStatsDays = 7

// StatsHandler serves completion statistics.
type StatsHandler struct {
	svc    *service.StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// Daily handles GET /api/stats?days=N.
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr := &model.ValidationError{}
			verr.Add("days", "must be an integer")
			handleServiceError(w, h.logger, verr)
			return
		}
		days = n
	}

	report, err := h.svc.Daily(r.Context(), owner, days)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStatsResponse(report))
}
