package handlers

import (
	"net/http"

	"event-wallboard/models"
	"event-wallboard/services"
)

// EventHandler serves the event routes. None of them has behavior yet: each
// answers 501 regardless of path parameters or body, and the event store is
// never touched.
type EventHandler struct {
	events *services.EventStore
	logger services.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventStore, logger services.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logger,
	}
}

// Webhook handles POST /webhook
func (h *EventHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	h.notImplemented(w)
}

// Wallboard handles GET /wallboard
func (h *EventHandler) Wallboard(w http.ResponseWriter, r *http.Request) {
	h.notImplemented(w)
}

// SourceMetrics handles GET /metrics/{source}
func (h *EventHandler) SourceMetrics(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Source metrics requested", services.String("source", pathParam(r, "source")))
	h.notImplemented(w)
}

// DeleteEvent handles DELETE /events/{eventId}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Event deletion requested", services.String("event_id", pathParam(r, "eventId")))
	h.notImplemented(w)
}

func (h *EventHandler) notImplemented(w http.ResponseWriter) {
	writeJSONResponse(w, h.logger, http.StatusNotImplemented, models.MessageResponse{Message: models.MessageNotImplemented})
}
