package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/upstream"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint such as Groq.
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OpenAIGenerator calls /chat/completions with a single user message.
type OpenAIGenerator struct {
	client *upstream.Client
	url    string
	model  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (r *chatResponse) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// NewOpenAIGenerator returns a generator for the configured endpoint. An empty
// API key is a configuration error.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: llm: API key is required", models.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: llm: model is required", models.ErrConfiguration)
	}
	return &OpenAIGenerator{
		client: upstream.New("llm", cfg.Timeout,
			upstream.WithBearerToken(cfg.APIKey),
			upstream.WithRateLimit(cfg.RequestsPerSecond)),
		url:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model: cfg.Model,
	}, nil
}

// Generate sends prompt as one user message and returns the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	var resp chatResponse
	if err := g.client.PostJSON(ctx, g.url, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: llm: response has no choices", models.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Close is a no-op.
func (g *OpenAIGenerator) Close() error {
	return nil
}
