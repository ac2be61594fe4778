package vision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func clearBackendEnv(t *testing.T) {
	t.Setenv("USE_OLLAMA", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func TestNewExtractorPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "ollama wins over everything",
			env:      map[string]string{"USE_OLLAMA": "true", "GEMINI_API_KEY": "g", "OPENAI_API_KEY": "o"},
			expected: "ollama",
		},
		{
			name:     "ollama flag is case insensitive",
			env:      map[string]string{"USE_OLLAMA": "TRUE"},
			expected: "ollama",
		},
		{
			name:     "gemini wins over openai",
			env:      map[string]string{"GEMINI_API_KEY": "g", "OPENAI_API_KEY": "o"},
			expected: "gemini",
		},
		{
			name:     "openai as last resort",
			env:      map[string]string{"OPENAI_API_KEY": "o"},
			expected: "openai",
		},
		{
			name:     "use_ollama false does not select ollama",
			env:      map[string]string{"USE_OLLAMA": "false", "OPENAI_API_KEY": "o"},
			expected: "openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearBackendEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			extractor, err := NewExtractor()
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if extractor.BackendName() != tt.expected {
				t.Errorf("Expected backend %s, got %s", tt.expected, extractor.BackendName())
			}
			if ConfiguredBackendName() != tt.expected {
				t.Errorf("Expected configured backend %s, got %s", tt.expected, ConfiguredBackendName())
			}
		})
	}
}

func TestNewExtractorNoBackend(t *testing.T) {
	clearBackendEnv(t)

	_, err := NewExtractor()
	if !errors.Is(err, ErrNoBackendConfigured) {
		t.Errorf("Expected ErrNoBackendConfigured, got %v", err)
	}
	if ConfiguredBackendName() != "none" {
		t.Errorf("Expected configured backend none, got %s", ConfiguredBackendName())
	}
}

type stubBackend struct {
	text string
	err  error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	return s.text, s.err
}

func TestExtractWrapsBackendFailure(t *testing.T) {
	cause := errors.New("connection refused")
	extractor := &Extractor{backend: &stubBackend{err: cause}}

	_, err := extractor.Extract(context.Background(), []byte("img"), "image/jpeg")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %v", err)
	}
	if backendErr.Backend != "stub" {
		t.Errorf("Expected backend stub, got %s", backendErr.Backend)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected error to unwrap to cause")
	}
}

func TestExtractGarbledOutputIsNotAnError(t *testing.T) {
	extractor := &Extractor{backend: &stubBackend{text: "no json here"}}

	candidates, err := extractor.Extract(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(candidates))
	}
}

func TestOllamaDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"response": "[{\"title\": \"Dune\", \"author\": \"Frank Herbert\"}]"}`))
	}))
	defer server.Close()

	t.Setenv("OLLAMA_URL", server.URL)
	backend := NewOllama()

	text, err := backend.Describe(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	candidates := ParseBookList(text)
	if len(candidates) != 1 || candidates[0].Title != "Dune" {
		t.Errorf("Expected Dune candidate, got %+v", candidates)
	}
}

func TestOllamaDescribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	t.Setenv("OLLAMA_URL", server.URL)
	backend := NewOllama()

	if _, err := backend.Describe(context.Background(), []byte("img"), "image/jpeg"); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestOpenAIDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %s", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "[]"}}]}`))
	}))
	defer server.Close()

	backend := NewOpenAI()
	backend.apiKey = "test-key"
	backend.baseURL = server.URL

	text, err := backend.Describe(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "[]" {
		t.Errorf("Expected [], got %s", text)
	}
}

func TestOpenAIDescribeNoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	backend := NewOpenAI()

	if _, err := backend.Describe(context.Background(), []byte("img"), "image/jpeg"); err == nil {
		t.Error("Expected error when API key is missing")
	}
}
