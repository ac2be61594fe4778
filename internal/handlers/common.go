// Package handlers exposes the catalog over HTTP.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"shelfscan/internal/books"
	"shelfscan/internal/ingest"
)

type Handler struct {
	store     *books.Store
	ingest    *ingest.Service
	uploadDir string
}

func New(store *books.Store, svc *ingest.Service) *Handler {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	return &Handler{
		store:     store,
		ingest:    svc,
		uploadDir: uploadDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) ensureUploadDir() error {
	return os.MkdirAll(h.uploadDir, 0755)
}

func decodeJSONBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
