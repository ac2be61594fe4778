// Package vision extracts book candidates from bookshelf photographs
// using an interchangeable set of multimodal LLM backends.
package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Candidate is one book sighting read off a shelf photo.
type Candidate struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Backend turns an image plus the fixed instruction prompt into raw model text.
type Backend interface {
	Name() string
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}

// ErrNoBackendConfigured is returned when no vision backend is available.
var ErrNoBackendConfigured = errors.New("no vision backend configured: set GEMINI_API_KEY, OPENAI_API_KEY, or USE_OLLAMA=true")

// BackendError wraps a network or service failure from a vision backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("vision backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

const shelfPrompt = "Examine this bookshelf image carefully. " +
	"List every book title and author name you can read on the spines. " +
	"Return ONLY a valid JSON array with no other text, no markdown, no explanation. " +
	`Format: [{"title": "Book Title", "author": "Author Name"}, ...] ` +
	"Use null for author when unreadable."

// Extractor runs shelf extraction through a single selected backend.
type Extractor struct {
	backend Backend
}

// NewExtractor picks the first configured backend: a local Ollama
// instance when USE_OLLAMA=true, then Gemini, then OpenAI.
func NewExtractor() (*Extractor, error) {
	switch {
	case useOllama():
		return &Extractor{backend: NewOllama()}, nil
	case os.Getenv("GEMINI_API_KEY") != "":
		return &Extractor{backend: NewGemini()}, nil
	case os.Getenv("OPENAI_API_KEY") != "":
		return &Extractor{backend: NewOpenAI()}, nil
	}
	return nil, ErrNoBackendConfigured
}

// BackendName reports which backend the extractor selected.
func (e *Extractor) BackendName() string {
	return e.backend.Name()
}

// Extract sends the image to the backend and parses the response into
// candidates. Upstream failures surface as *BackendError; garbled model
// output yields an empty candidate list, not an error.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) ([]Candidate, error) {
	raw, err := e.backend.Describe(ctx, image, mimeType)
	if err != nil {
		return nil, &BackendError{Backend: e.backend.Name(), Err: err}
	}
	return ParseBookList(raw), nil
}

// ConfiguredBackendName reports which backend NewExtractor would pick,
// or "none". Used by the health endpoint without building a client.
func ConfiguredBackendName() string {
	switch {
	case useOllama():
		return "ollama"
	case os.Getenv("GEMINI_API_KEY") != "":
		return "gemini"
	case os.Getenv("OPENAI_API_KEY") != "":
		return "openai"
	}
	return "none"
}

func useOllama() bool {
	return strings.EqualFold(os.Getenv("USE_OLLAMA"), "true")
}
