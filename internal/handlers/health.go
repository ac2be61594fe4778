package handlers

import (
	"net/http"

	"shelfscan/internal/books"
	"shelfscan/internal/vision"
)

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Count(r.Context(), books.Filter{})
	if err != nil {
		h.writeError(w, "Database unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]any{
		"status":  "ok",
		"backend": vision.ConfiguredBackendName(),
		"books":   total,
	})
}
