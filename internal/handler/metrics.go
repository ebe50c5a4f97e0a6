package handler

import "net/http"

// MetricsHandler serves the metrics exposition.
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler creates a new MetricsHandler. A nil exposition makes
// the endpoint answer 503.
func NewMetricsHandler(exposition http.Handler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		writeError(w, http.StatusServiceUnavailable, "METRICS_DISABLED", "metrics are disabled")
		return
	}
	h.exposition.ServeHTTP(w, r)
}
