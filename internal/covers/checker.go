// Package covers validates cover image URLs and finds replacements for
// broken ones.
package covers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelfscan/internal/books"
)

const userAgent = "shelfscan/1.0"

// Open Library serves a tiny placeholder image for unknown ISBNs, so
// anything at or below this size is treated as missing.
const minCoverBytes = 2000

// googleTiers is checked in order of preference.
var googleTiers = []string{"extraLarge", "large", "medium", "small", "thumbnail"}

// Checker validates cover URLs and resolves fallbacks.
type Checker struct {
	httpClient *http.Client
	coversBase string
	booksBase  string
}

// NewChecker returns a Checker pointed at the public cover services.
func NewChecker() *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: 12 * time.Second},
		coversBase: "https://covers.openlibrary.org",
		booksBase:  "https://www.googleapis.com/books/v1",
	}
}

// ISBNCoverURL returns the Open Library cover URL for an ISBN, or ""
// when the ISBN is empty after cleaning.
func (c *Checker) ISBNCoverURL(isbn string) string {
	clean := books.CleanISBN(isbn)
	if clean == "" {
		return ""
	}
	return c.coversBase + "/b/isbn/" + clean + "-L.jpg"
}

// Valid reports whether the URL serves a real cover image. A real
// cover has an image content type, JPEG magic bytes, and a body larger
// than the placeholder threshold. Any request failure counts as invalid.
func (c *Checker) Valid(ctx context.Context, coverURL string) bool {
	if coverURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, "GET", coverURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return false
	}

	// Some hosts omit Content-Length; give those the benefit of the doubt
	if resp.ContentLength >= 0 && resp.ContentLength <= minCoverBytes {
		return false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(head) < 3 {
		return false
	}
	return head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF
}

// Resolve finds the best cover URL for a book. The current URL wins if
// it still validates, then the Open Library ISBN cover, then Google
// Books. The bool is false when every source came up empty.
func (c *Checker) Resolve(ctx context.Context, currentURL, isbn string) (string, bool) {
	if c.Valid(ctx, currentURL) {
		return currentURL, true
	}

	if olURL := c.ISBNCoverURL(isbn); olURL != "" && olURL != currentURL && c.Valid(ctx, olURL) {
		return olURL, true
	}

	if gbURL := c.googleBooksCover(ctx, isbn); gbURL != "" {
		return gbURL, true
	}

	return "", false
}

// googleBooksCover asks the Google Books API for a cover by ISBN. The
// returned link is not validated; Google's image service rejects the
// probe requests that work against Open Library.
func (c *Checker) googleBooksCover(ctx context.Context, isbn string) string {
	clean := books.CleanISBN(isbn)
	if clean == "" {
		return ""
	}

	q := url.Values{}
	q.Set("q", "isbn:"+clean)

	req, err := http.NewRequestWithContext(ctx, "GET", c.booksBase+"/volumes?"+q.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Google books lookup failed", "isbn", clean, "err", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var result struct {
		Items []struct {
			VolumeInfo struct {
				ImageLinks map[string]string `json:"imageLinks"`
			} `json:"volumeInfo"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ""
	}
	if len(result.Items) == 0 {
		return ""
	}

	links := result.Items[0].VolumeInfo.ImageLinks
	for _, tier := range googleTiers {
		if link, ok := links[tier]; ok && link != "" {
			return normalizeGoogleLink(link)
		}
	}
	return ""
}

func normalizeGoogleLink(link string) string {
	link = strings.Replace(link, "http://", "https://", 1)
	return strings.ReplaceAll(link, "&edge=curl", "")
}
