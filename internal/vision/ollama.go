package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Ollama is a vision backend for a local Ollama instance.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama returns a new Ollama backend configured from the environment.
func NewOllama() *Ollama {
	baseURL := os.Getenv("OLLAMA_URL")
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "llava"
	}

	return &Ollama{
		baseURL: baseURL,
		model:   model,
		// Local vision models can be slow on modest hardware
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
}

func (o *Ollama) Name() string { return "ollama" }

// Describe sends the image and shelf prompt to Ollama's generate API.
func (o *Ollama) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	b64 := base64.StdEncoding.EncodeToString(image)

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": shelfPrompt,
		"images": []string{b64},
		"stream": false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return response.Response, nil
}
