package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/upstream"
)

// OllamaConfig configures an Ollama /api/embed endpoint.
type OllamaConfig struct {
	BaseURL           string
	Model             string
	Dimensions        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OllamaEmbedder calls a local Ollama server.
type OllamaEmbedder struct {
	client     *upstream.Client
	url        string
	model      string
	dimensions int
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (r *ollamaEmbedResponse) ErrorMessage() string {
	return r.Error
}

// NewOllamaEmbedder returns an embedder for the configured Ollama server.
func NewOllamaEmbedder(cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: ollama embeddings: model is required", models.ErrConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: ollama embeddings: dimensions must be positive", models.ErrConfiguration)
	}
	return &OllamaEmbedder{
		client:     upstream.New("ollama", cfg.Timeout, upstream.WithRateLimit(cfg.RequestsPerSecond)),
		url:        strings.TrimRight(cfg.BaseURL, "/") + "/api/embed",
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed embeds a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var resp ollamaEmbedResponse
	if err := e.client.PostJSON(ctx, e.url, ollamaEmbedRequest{Model: e.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama embeddings: got %d vectors for %d inputs", models.ErrUpstream, len(resp.Embeddings), len(texts))
	}
	for i, v := range resp.Embeddings {
		if err := checkVector(v, e.dimensions); err != nil {
			return nil, fmt.Errorf("ollama embeddings: input %d: %w", i, err)
		}
	}
	return resp.Embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *OllamaEmbedder) Close() error {
	return nil
}
