package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload as a JSON response with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "error", err, "path", r.URL.Path)
	}
}

// Error writes a structured error response. Message is safe for clients;
// internal detail belongs in logs, not here.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	JSON(w, r, status, errorBody{Error: errorDetail{Code: code, Message: message, Details: details}})
}

// ValidationError writes a 422 with per-field detail.
func ValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	Error(w, r, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "request validation failed", fields)
}
