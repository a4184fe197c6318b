package llm

import (
	"context"
	"errors"
	"fmt"

	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/shared"
)

// ErrNotConfigured is returned by New when the selected provider has no API key.
var ErrNotConfigured = errors.New("llm provider not configured")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// New returns the text generator selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	switch cfg.LLMProvider {
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("%w: GROQ_API_KEY is empty", ErrNotConfigured)
		}
		return NewGroqClient(cfg), nil
	default:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", ErrNotConfigured)
		}
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
