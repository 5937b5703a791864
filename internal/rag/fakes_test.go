package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
)

// mapEmbedder returns fixed vectors per text.
type mapEmbedder struct {
	dims    int
	vectors map[string][]float32
	err     error
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.vectors[text]
	if !ok {
		return make([]float32, m.dims), nil
	}
	return v, nil
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mapEmbedder) Dimensions() int { return m.dims }
func (m *mapEmbedder) Close() error    { return nil }

// stubSearcher returns canned results.
type stubSearcher struct {
	results []models.ScoredChunk
	err     error
	gotK    int
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, k int) ([]models.ScoredChunk, error) {
	s.gotK = k
	return s.results, s.err
}

// scriptedGenerator replies with a function of the prompt and records calls.
type scriptedGenerator struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	calls   int
	prompts []string
	opts    []llm.GenerateOptions
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	g.mu.Unlock()
	return g.reply(prompt)
}

func (g *scriptedGenerator) Model() string { return "scripted" }
func (g *scriptedGenerator) Close() error  { return nil }

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func fixedReply(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

var errModelDown = errors.New("connection refused")

var stopWords = map[string]bool{
	"what": true, "was": true, "the": true, "who": true, "is": true, "are": true,
	"how": true, "did": true, "of": true, "a": true, "an": true, "in": true, "to": true,
}

func contentWords(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:?!()\"'")
		if len(w) > 1 && !stopWords[w] {
			out[w] = true
		}
	}
	return out
}

func between(s, start, end string) string {
	_, after, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	before, _, _ := strings.Cut(after, end)
	return before
}

// extractiveModel stands in for a grounded language model: it picks the
// context block sharing the most words with the question and quotes that
// block's numbers with its source, or gives the not-found sentence.
func extractiveModel(prompt string) (string, error) {
	question := contentWords(between(prompt, "Question:\n", "\n\nInstructions:"))
	context := between(prompt, "Context:\n", "\n\nQuestion:")

	bestHeader, bestBody, bestScore := "", "", 0
	for _, block := range strings.Split(context, "\n\n") {
		header, body, ok := strings.Cut(block, "\n")
		if !ok || !strings.HasPrefix(header, "From ") {
			continue
		}
		score := 0
		for w := range contentWords(body) {
			if question[w] {
				score++
			}
		}
		if score > bestScore {
			bestHeader, bestBody, bestScore = header, body, score
		}
	}
	if bestScore == 0 {
		return `"I don't know from the provided material."` + "\n", nil
	}
	source := strings.TrimSuffix(strings.TrimPrefix(bestHeader, "From "), ":")
	return fmt.Sprintf("%s [%s]", strings.Join(ExtractNumbers(bestBody), ", "), source), nil
}
