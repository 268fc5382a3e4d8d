package narrative

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator turns a prompt into the model's raw text response.
// This interface enables mocking the model in tests.
type Generator interface {
	Generate(ctx context.Context, kind Kind, prompt string) (string, error)
}

// GeminiGenerator is the Generator backed by Gemini.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini client. Credentials come from the
// environment (GOOGLE_API_KEY or Vertex AI application default credentials).
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends the prompt with the sampling settings of kind.
func (g *GeminiGenerator) Generate(ctx context.Context, kind Kind, prompt string) (string, error) {
	c, ok := contracts[kind]
	if !ok {
		return "", fmt.Errorf("Generate: unknown kind %q", kind)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return text, nil
}
