// Package classifier sends one article at a time to an external language
// model and returns its raw reply. It performs no retries and never
// substitutes a default answer.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var (
	ErrService       = errors.New("classification service error")
	ErrEmptyResponse = errors.New("empty classification response")
)

type Classifier interface {
	Classify(ctx context.Context, title, summary string) (string, error)
	Name() string
}

type Config struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// New builds the classifier selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider '%s'", cfg.Provider)
	}
}
