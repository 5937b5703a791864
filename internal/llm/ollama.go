package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/upstream"
)

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OllamaGenerator calls /api/generate without streaming.
type OllamaGenerator struct {
	client *upstream.Client
	url    string
	model  string
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (r *ollamaGenerateResponse) ErrorMessage() string {
	return r.Error
}

// NewOllamaGenerator returns a generator for the configured server.
func NewOllamaGenerator(cfg OllamaConfig) (*OllamaGenerator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: ollama: model is required", models.ErrConfiguration)
	}
	return &OllamaGenerator{
		client: upstream.New("ollama", cfg.Timeout, upstream.WithRateLimit(cfg.RequestsPerSecond)),
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/api/generate",
		model:  cfg.Model,
	}, nil
}

// Generate returns the complete response text.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := ollamaGenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}
	var resp ollamaGenerateResponse
	if err := g.client.PostJSON(ctx, g.url, req, &resp); err != nil {
		return "", err
	}
	if !resp.Done && resp.Response == "" {
		return "", fmt.Errorf("%w: ollama: empty response", models.ErrUpstream)
	}
	return resp.Response, nil
}

// Model returns the model name.
func (g *OllamaGenerator) Model() string {
	return g.model
}

// Close is a no-op.
func (g *OllamaGenerator) Close() error {
	return nil
}
