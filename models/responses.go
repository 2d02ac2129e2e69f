package models

// StatusResponse is the health check payload
type StatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse carries a single human readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// APIError represents standardized error response
type APIError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

const (
	// StatusOK is the only status the health check reports.
	StatusOK = "ok"

	// MessageNotImplemented is returned by every route without behavior.
	MessageNotImplemented = "Not implemented yet"
)
