package handlers

import (
	"net/http"

	"event-wallboard/errors"
	"event-wallboard/services"
)

// FallbackHandler answers requests no route matched. A known path with the
// wrong method is treated like an unknown path: both get 404.
type FallbackHandler struct {
	logger services.Logger
}

// NewFallbackHandler creates a new fallback handler
func NewFallbackHandler(logger services.Logger) *FallbackHandler {
	return &FallbackHandler{logger: logger}
}

// NotFound handles unmatched paths. The path is echoed as sent, still
// percent-encoded.
func (h *FallbackHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeAppErrorResponse(w, h.logger, errors.NewNotFoundError(
		errors.ErrCodeRouteNotFound,
		"Cannot "+r.Method+" "+r.URL.EscapedPath(),
		nil,
	))
}

// MethodNotAllowed handles matched paths requested with an unsupported method
func (h *FallbackHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	appErr := errors.NewMethodNotAllowedError(
		errors.ErrCodeMethodNotAllowed,
		"Cannot "+r.Method+" "+r.URL.EscapedPath(),
		nil,
	)
	appErr.StatusCode = http.StatusNotFound
	writeAppErrorResponse(w, h.logger, appErr)
}

// Recovered answers a request whose handler panicked
func (h *FallbackHandler) Recovered(w http.ResponseWriter, r *http.Request, cause error) {
	writeAppErrorResponse(w, h.logger, errors.NewInternalError(
		errors.ErrCodePanic,
		"Internal server error",
		cause,
	))
}
