package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the envelope of successful query endpoints.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Total   *int   `json:"total,omitempty"`
	Data    any    `json:"data"`
}

// ErrorResponse is the body of every failed request. Errors holds messages
// safe to show to the client.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteJSON encodes payload with the given status code. Encoding failures are
// only logged since the header is already out.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil && log != nil {
		log.Error("Failed to encode response", "status", statusCode, "error", err)
	}
}

// WriteData wraps data in the success envelope. total is reported for lists.
func WriteData(w http.ResponseWriter, data any, total int, isList bool, log *slog.Logger) {
	resp := Response{Status: "200", Message: "Exitoso", Data: data}
	if isList {
		resp.Total = &total
	}
	WriteJSON(w, http.StatusOK, resp, log)
}

// WriteError writes an ErrorResponse. A nil errs is sent as an empty list.
func WriteError(w http.ResponseWriter, statusCode int, message string, errs []string, log *slog.Logger) {
	if errs == nil {
		errs = []string{}
	}
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Errors: errs}, log)
}
