// Package llm wraps the Gemini API behind a small text-generation
// interface so services can swap in stubs during tests.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	SystemInstruction string
	Temperature       float32
	MaxOutputTokens   int32
}

// TextGenerator produces a free-form text completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GeminiGenerator is the production TextGenerator backed by
// google.golang.org/genai.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	config := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}
