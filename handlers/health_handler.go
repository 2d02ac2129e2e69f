package handlers

import (
	"net/http"

	"event-wallboard/models"
	"event-wallboard/services"
)

// HealthHandler serves the liveness check
type HealthHandler struct {
	logger services.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger services.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// Health handles GET /health. It has no inputs and cannot fail.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, h.logger, http.StatusOK, models.StatusResponse{Status: models.StatusOK})
}
