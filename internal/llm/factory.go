package llm

import (
	"fmt"
	"os"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// NewFromConfig builds the configured generator. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func NewFromConfig(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%w: llm: environment variable %s is not set", models.ErrConfiguration, cfg.APIKeyEnv)
		}
		return NewOpenAIGenerator(OpenAIConfig{
			APIKey:            key,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case config.ProviderOllama:
		return NewOllamaGenerator(OllamaConfig{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", models.ErrConfiguration, cfg.Provider)
	}
}
