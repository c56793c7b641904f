package embed

import (
	"log/slog"
	"net/http"

	"Embeds/internal/api/handlers"
	"Embeds/internal/core/embeds"
)

// statusForError maps repository errors to an HTTP status.
// Anything that is not the caller's fault is a 500.
func statusForError(err error) int {
	if embeds.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handleServiceError writes the error response for a failed lookup without
// leaking storage details to the client
func handleServiceError(w http.ResponseWriter, err error) {
	switch status := statusForError(err); status {
	case http.StatusBadRequest:
		handlers.WriteError(w, status, "InvalidRequest", err.Error())
	default:
		slog.Error("[EMBED-API] lookup failed", "error", err)
		handlers.WriteError(w, status, "InternalServerError", "An internal error occurred")
	}
}
