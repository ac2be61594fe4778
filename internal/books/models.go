package books

import (
	"strings"
	"time"
)

// BookRecord is one cataloged book.
type BookRecord struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author,omitempty"`
	ISBN           string    `json:"isbn,omitempty"`
	CoverURL       string    `json:"cover_url,omitempty"`
	Description    string    `json:"description,omitempty"`
	Publisher      string    `json:"publisher,omitempty"`
	PublishYear    int       `json:"publish_year,omitempty"`
	OpenLibraryKey string    `json:"open_library_key,omitempty"`
	Section        string    `json:"section,omitempty"`
	SourceImage    string    `json:"source_image,omitempty"`
	Owned          bool      `json:"owned"`
	AddedAt        time.Time `json:"added_at"`
}

// SectionTitle is the slice of a record the reconciler matches against.
type SectionTitle struct {
	ID       int64
	Title    string
	ISBN     string
	CoverURL string
}

// Filter narrows a catalog listing.
type Filter struct {
	Query   string // substring match on title or author
	Section string
	Limit   int
	Offset  int
}

// CleanISBN strips hyphens and whitespace from a free-form ISBN.
func CleanISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	isbn = strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}
