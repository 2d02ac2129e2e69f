package handlers

import (
	"bytes"
	"net/http"

	"event-wallboard/errors"
	"event-wallboard/services"
)

// MetricsHandler exposes request metrics in the Prometheus text format
type MetricsHandler struct {
	metrics services.MetricsService
	logger  services.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(metrics services.MetricsService, logger services.Logger) *MetricsHandler {
	return &MetricsHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// Serve renders the current metrics in the Prometheus text format, or as a
// JSON snapshot with ?format=json. Output is buffered so an encoding failure
// can still produce a clean error response.
func (h *MetricsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "json" {
		writeJSONResponse(w, h.logger, http.StatusOK, h.metrics.GetMetrics())
		return
	}

	var buf bytes.Buffer
	if err := h.metrics.WritePrometheus(&buf); err != nil {
		writeAppErrorResponse(w, h.logger, errors.WrapError(err, errors.ErrTypeInternal, errors.ErrCodeSerializationError, "Failed to render metrics"))
		return
	}

	w.Header().Set("Content-Type", services.PrometheusContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("Failed to write metrics body", services.String("error", err.Error()))
	}
}
