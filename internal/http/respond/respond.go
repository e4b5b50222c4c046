// Package respond writes the JSON envelope every API response uses.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"volunteer-api/internal/apperr"
)

const noDetails = "No further information"

type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

func Success(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Status: "success", Data: data})
}

// Fail writes an error envelope with an explicit status and message.
func Fail(w http.ResponseWriter, status int, message, details string) {
	if details == "" {
		details = noDetails
	}
	write(w, status, Envelope{Status: "error", Error: message, Details: details})
}

// Error maps err to its status and message. Server-side failures are logged
// and their diagnostic goes into details.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	message := apperr.Message(err)

	details := ""
	if err.Error() != message {
		details = err.Error()
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request_failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.DebugContext(r.Context(), "request_rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", message)
	}
	Fail(w, status, message, details)
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode_response", "error", err)
	}
}
