package http

import (
	"encoding/json"
	"net/http"
)

// AckResponse mirrors the acknowledgment shape of the websocket
// protocol so callers using the HTTP fallback path see the same
// contract.
type AckResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ListResponse wraps a list of items
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// The header has already been sent; nothing useful to do.
		_ = err
	}
}

// WriteAck writes a positive acknowledgment
func WriteAck(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, AckResponse{Success: true})
}
