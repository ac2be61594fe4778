package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shelfscan/internal/vision"
)

func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	// Limit file size to 10MB; read one extra byte to tell an
	// exactly-10MB upload apart from an oversized one
	imageData, err := io.ReadAll(io.LimitReader(file, 10*1024*1024+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(imageData) > 10*1024*1024 {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	mimeType := http.DetectContentType(imageData)
	if !strings.HasPrefix(mimeType, "image/") {
		h.writeError(w, "Uploaded file is not an image", http.StatusBadRequest)
		return
	}

	if err := h.ensureUploadDir(); err != nil {
		h.writeError(w, "Failed to create upload directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	savedName := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(header.Filename))
	savedPath := filepath.Join(h.uploadDir, savedName)
	if err := os.WriteFile(savedPath, imageData, 0644); err != nil {
		h.writeError(w, "Failed to save upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := h.ingest.ScanImage(r.Context(), imageData, mimeType, savedName)
	if err != nil {
		var backendErr *vision.BackendError
		switch {
		case errors.Is(err, vision.ErrNoBackendConfigured):
			h.writeError(w, err.Error(), http.StatusServiceUnavailable)
		case errors.As(err, &backendErr):
			h.writeError(w, "Vision backend failed: "+backendErr.Error(), http.StatusBadGateway)
		default:
			h.writeError(w, "Scan failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, result)
}
