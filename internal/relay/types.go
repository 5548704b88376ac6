package relay

import "encoding/json"

// Request is a frame sent by a relay client.
type Request struct {
	RequestID string          `json:"request_id"`
	Command   string          `json:"command"`
	Params    json.RawMessage `json:"params"`
}

// Response answers one Request. Type is "response" or "error".
type Response struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Code      int    `json:"code"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Event is pushed without a matching request.
type Event struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
