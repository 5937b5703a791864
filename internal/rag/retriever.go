// Package rag answers questions from retrieved document chunks.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
)

// Searcher is a nearest-neighbour index, best match first.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
}

// Retriever embeds a question, over-fetches kSearch candidates and keeps the
// first kKeep by similarity. The over-fetch gives the min-score floor room to
// discard weak matches before truncation.
type Retriever struct {
	searcher Searcher
	embedder embedding.Embedder
	kSearch  int
	kKeep    int
	minScore float64
	logger   *zap.Logger
}

// NewRetriever validates 1 <= kKeep <= kSearch.
func NewRetriever(searcher Searcher, embedder embedding.Embedder, kSearch, kKeep int, opts ...Option) (*Retriever, error) {
	if kKeep < 1 {
		return nil, fmt.Errorf("%w: k_keep must be at least 1, got %d", models.ErrConfiguration, kKeep)
	}
	if kSearch < kKeep {
		return nil, fmt.Errorf("%w: k_search (%d) must not be less than k_keep (%d)", models.ErrConfiguration, kSearch, kKeep)
	}
	s := newSettings(opts)
	return &Retriever{
		searcher: searcher,
		embedder: embedder,
		kSearch:  kSearch,
		kKeep:    kKeep,
		minScore: s.minScore,
		logger:   s.logger,
	}, nil
}

// Retrieve returns the context for question. It returns models.ErrEmptyRetrieval
// when the index yields no usable candidates.
func (r *Retriever) Retrieve(ctx context.Context, question string) (*models.RetrievedContext, error) {
	query, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, upstreamError("failed to embed question", err)
	}

	candidates, err := r.searcher.Search(ctx, query, r.kSearch)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	pool := len(candidates)
	if r.minScore != 0 {
		kept := candidates[:0:0]
		for _, c := range candidates {
			if c.Score >= r.minScore {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		r.logger.Debug("no candidates", zap.String("question", question), zap.Int("pool", pool))
		return nil, models.ErrEmptyRetrieval
	}
	if len(candidates) > r.kKeep {
		candidates = candidates[:r.kKeep]
	}

	rc := &models.RetrievedContext{Chunks: candidates}
	blocks := make([]string, len(candidates))
	for i, sc := range candidates {
		blocks[i] = fmt.Sprintf("From %s (page %s):\n%s", sc.Chunk.Source, sc.Chunk.PageLabel(), sc.Chunk.Text)
		rc.Numbers = append(rc.Numbers, ExtractNumbers(sc.Chunk.Text)...)
	}
	rc.Text = strings.Join(blocks, "\n\n")
	if len(rc.Numbers) > 0 {
		rc.Text += "\n\nPossible numeric values mentioned: " + strings.Join(rc.Numbers, ", ")
	}

	if ce := r.logger.Check(zap.DebugLevel, "retrieved context"); ce != nil {
		sources := make([]string, len(candidates))
		for i, sc := range candidates {
			sources[i] = fmt.Sprintf("%s#%s %.3f", sc.Chunk.Source, sc.Chunk.PageLabel(), sc.Score)
		}
		ce.Write(
			zap.Int("pool", pool),
			zap.Strings("kept", sources),
			zap.Strings("numbers", rc.Numbers),
		)
	}
	return rc, nil
}

// upstreamError makes sure a failed external call is reported as ErrUpstream.
// Cancellation by the caller is passed through unchanged.
func upstreamError(msg string, err error) error {
	if errors.Is(err, models.ErrUpstream) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %v", models.ErrUpstream, msg, err)
}
