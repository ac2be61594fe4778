package vision

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a vision backend for Google Gemini.
type Gemini struct {
	apiKey string
	model  string
}

// NewGemini returns a new Gemini backend configured from the environment.
func NewGemini() *Gemini {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		apiKey: os.Getenv("GEMINI_API_KEY"),
		model:  model,
	}
}

func (g *Gemini) Name() string { return "gemini" }

// Describe sends the image and shelf prompt to Gemini.
func (g *Gemini) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)

	// genai wants the bare image format, not the full media type
	format := strings.TrimPrefix(mimeType, "image/")

	resp, err := model.GenerateContent(ctx, genai.ImageData(format, image), genai.Text(shelfPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
