package handlers

import (
	"net/http"
	"strconv"

	"shelfscan/internal/books"
	"shelfscan/internal/export"
)

func (h *Handler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.listBooks(w, r)
	case "POST":
		h.createBook(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	filter := books.Filter{
		Query:   r.URL.Query().Get("q"),
		Section: r.URL.Query().Get("section"),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	records, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "Failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []books.BookRecord{}
	}

	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		h.writeError(w, "Failed to count books: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]any{
		"books": records,
		"total": total,
	})
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var rec books.BookRecord
	if err := decodeJSONBody(r, &rec); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	rec.ID = 0
	if _, err := h.store.Insert(r.Context(), &rec); err != nil {
		h.writeError(w, "Failed to create book: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, rec)
}

func (h *Handler) HandleBookDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "GET":
		rec, err := h.store.GetByID(r.Context(), id)
		if err != nil {
			h.writeError(w, "Failed to fetch book: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if rec == nil {
			h.writeError(w, "Book not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, rec)
	case "DELETE":
		deleted, err := h.store.Delete(r.Context(), id)
		if err != nil {
			h.writeError(w, "Failed to delete book: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if !deleted {
			h.writeError(w, "Book not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, map[string]any{"deleted": id})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.store.Sections(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list sections: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if sections == nil {
		sections = []string{}
	}
	h.writeJSON(w, map[string]any{"sections": sections})
}

func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context(), books.Filter{Section: r.URL.Query().Get("section")})
	if err != nil {
		h.writeError(w, "Failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="books.csv"`)
	if err := export.WriteCSV(w, records); err != nil {
		h.writeError(w, "Failed to write CSV: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) HandleExportJSON(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context(), books.Filter{Section: r.URL.Query().Get("section")})
	if err != nil {
		h.writeError(w, "Failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="books.json"`)
	if err := export.WriteJSON(w, records); err != nil {
		h.writeError(w, "Failed to write JSON: "+err.Error(), http.StatusInternalServerError)
	}
}
