package embed

import (
	"net/http"

	"Embeds/internal/api/handlers"
	"Embeds/internal/core/embeds"
)

// GetHandler serves cached embeds without resolving
type GetHandler struct {
	repo embeds.Repository
}

// NewGetHandler creates a new get handler
func NewGetHandler(repo embeds.Repository) *GetHandler {
	return &GetHandler{repo: repo}
}

// HandleGet returns the stored record for ident
// GET /embed/data?ident=...
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ident := r.URL.Query().Get("ident")
	if ident == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "ident parameter is required")
		return
	}

	record, err := h.repo.EmbedData(r.Context(), ident)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if record == nil {
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "No cached embed for this ident")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, record)
}
