package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"event-wallboard/errors"
	"event-wallboard/models"
	"event-wallboard/services"

	"github.com/gorilla/mux"
)

// ContentTypeJSON is the Content-Type of every JSON response
const ContentTypeJSON = "application/json; charset=utf-8"

// writeJSONResponse writes data as a compact JSON body with the given status
// code. No trailing newline is written.
func writeJSONResponse(w http.ResponseWriter, logger services.Logger, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		appErr := errors.WrapError(err, errors.ErrTypeInternal, errors.ErrCodeSerializationError, "Failed to encode response")
		logger.Error("Failed to encode JSON response", appErr)
		statusCode = http.StatusInternalServerError
		body = []byte(`{"type":"internal","code":"SERIALIZATION_ERROR","message":"Failed to encode response"}`)
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logger.Debug("Failed to write response body", services.String("error", err.Error()))
	}
}

// writeAppErrorResponse writes an AppError as HTTP response
func writeAppErrorResponse(w http.ResponseWriter, logger services.Logger, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.WrapError(err, errors.ErrTypeInternal, errors.ErrCodePanic, "Internal server error")
	}

	apiError := models.APIError{
		Type:    string(appErr.Type),
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}

	statusCode := appErr.GetHTTPStatusCode()
	if statusCode >= http.StatusInternalServerError {
		logger.Error("API error", appErr, services.String("code", appErr.Code))
	} else {
		logger.Debug("API error", services.String("code", appErr.Code), services.String("details", appErr.Details))
	}

	writeJSONResponse(w, logger, statusCode, apiError)
}

// pathParam returns a route variable with percent-encoding removed. The
// router matches on the escaped path, so variables arrive still encoded.
func pathParam(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}
