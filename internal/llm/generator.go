// Package llm provides clients for the language models that write answers.
package llm

import "context"

// GenerateOptions controls one generation call.
type GenerateOptions struct {
	// Temperature is sent as given, including 0.
	Temperature float64
	// MaxTokens caps the reply length; 0 leaves it to the server.
	MaxTokens int
}

// Generator turns a rendered prompt into text. A call either returns the full
// reply or an error; there is no streaming.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Model() string
	Close() error
}
