package embed

import (
	"log/slog"
	"net/http"

	"Embeds/internal/api/handlers"
	"Embeds/internal/core/embeds"
)

// UpdateResponse reports whether the embed cache holds a row for the ident
type UpdateResponse struct {
	Success bool `json:"success"`
}

// UpdateHandler warms the embed cache for a single ident
type UpdateHandler struct {
	repo   embeds.Repository
	format embeds.OutputFormat
}

// NewUpdateHandler creates an update handler that caches embeds in the array format
func NewUpdateHandler(repo embeds.Repository) *UpdateHandler {
	return &UpdateHandler{
		repo:   repo,
		format: embeds.FormatArray,
	}
}

// HandleUpdate resolves and stores the embed for ident
// POST /embed/update
//
// Form or query parameter: ident
// Response: { "success": bool }
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ident := r.FormValue("ident")

	record, err := h.repo.SaveEmbedData(r.Context(), ident, h.format)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			slog.Error("[EMBED-API] update failed", "ident", ident, "error", err)
		}
		handlers.WriteJSON(w, status, UpdateResponse{Success: false})
		return
	}

	handlers.WriteJSON(w, http.StatusOK, UpdateResponse{
		Success: record != nil && record.Ident != "",
	})
}
