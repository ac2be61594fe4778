// Package openlibrary resolves book metadata through the Open Library
// search API.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Metadata is the enriched record for a single book. When a lookup
// fails or matches nothing, Resolve returns the input title and author
// unchanged with every other field empty.
type Metadata struct {
	Title       string
	Author      string
	ISBN        string
	CoverURL    string
	Description string
	Publisher   string
	PublishYear int
	CatalogKey  string
}

// Client queries the Open Library search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a Client pointed at openlibrary.org.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://openlibrary.org",
	}
}

// firstSentence appears in the API as a plain string, an array of
// strings, or a {"type": ..., "value": ...} object depending on the
// record. Unrecognized shapes decode to empty rather than failing the
// whole response.
type firstSentence struct {
	Value string
}

func (f *firstSentence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Value = s
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) > 0 {
			f.Value = arr[0]
		}
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		f.Value = obj.Value
	}
	return nil
}

// Resolve looks up title and author and returns the best match.
// It never returns an error; any failure falls back to identity
// metadata so callers can proceed with what they already have.
func (c *Client) Resolve(ctx context.Context, title, author string) Metadata {
	identity := Metadata{Title: title, Author: author}

	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		slog.Warn("Unable to build open library request", "title", title, "err", err)
		return identity
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Open library lookup failed", "title", title, "err", err)
		return identity
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Open library returned non-200 status code", "title", title, "status", resp.StatusCode)
		return identity
	}

	var result struct {
		Docs []struct {
			Title            string        `json:"title"`
			AuthorName       []string      `json:"author_name"`
			ISBN             []string      `json:"isbn"`
			CoverID          int           `json:"cover_i"`
			FirstSentence    firstSentence `json:"first_sentence"`
			Publisher        []string      `json:"publisher"`
			FirstPublishYear int           `json:"first_publish_year"`
			Key              string        `json:"key"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Warn("Unable to decode open library response", "title", title, "err", err)
		return identity
	}

	if len(result.Docs) == 0 {
		return identity
	}

	doc := result.Docs[0]
	meta := Metadata{
		Title:       title,
		Author:      author,
		Description: doc.FirstSentence.Value,
		PublishYear: doc.FirstPublishYear,
		CatalogKey:  doc.Key,
	}
	if doc.Title != "" {
		meta.Title = doc.Title
	}
	if len(doc.AuthorName) > 0 {
		meta.Author = doc.AuthorName[0]
	}
	if len(doc.ISBN) > 0 {
		meta.ISBN = doc.ISBN[0]
	}
	if doc.CoverID != 0 {
		meta.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverID)
	}
	if len(doc.Publisher) > 0 {
		meta.Publisher = doc.Publisher[0]
	}
	return meta
}
