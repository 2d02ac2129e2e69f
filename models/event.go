package models

import "encoding/json"

// Event is a record delivered by a webhook. Only the identifier is
// interpreted; the payload is kept as the raw JSON that arrived.
type Event struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
