package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
)

// PassageSearcher looks up chunks by keyword.
type PassageSearcher interface {
	Search(ctx context.Context, query string, limit int, opts *keyword.SearchOptions) ([]models.ScoredChunk, error)
}

// Service is the question answering boundary. It holds no per-call state and
// is safe for concurrent use.
type Service struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	passages    PassageSearcher
	logger      *zap.Logger
}

// NewService wires a retriever and a synthesizer.
func NewService(retriever *Retriever, synthesizer *Synthesizer, opts ...Option) *Service {
	s := newSettings(opts)
	return &Service{
		retriever:   retriever,
		synthesizer: synthesizer,
		passages:    s.passages,
		logger:      s.logger,
	}
}

// Answer returns only the answer text for question.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	a, err := s.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

// Ask answers question and reports the chunks it was answered from. When
// nothing is retrievable it returns NoContextAnswer without calling the model.
func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty: %w", models.ErrEmptyQuestion)
	}
	if s.retriever == nil || s.synthesizer == nil {
		return nil, errors.New("question answering is not available")
	}

	rc, err := s.retriever.Retrieve(ctx, question)
	if errors.Is(err, models.ErrEmptyRetrieval) {
		s.logger.Info("nothing retrievable", zap.String("question", question))
		return &models.Answer{Question: question, Text: NoContextAnswer}, nil
	}
	if err != nil {
		return nil, err
	}

	text, err := s.synthesizer.Synthesize(ctx, rc.Text, question)
	if err != nil {
		return nil, err
	}
	answer := &models.Answer{
		Question: question,
		Text:     text,
		Numbers:  rc.Numbers,
		Grounded: true,
	}
	if text != NotFoundAnswer {
		answer.Sources = models.CitationsFrom(rc.Chunks)
	}
	s.logger.Debug("answered",
		zap.String("question", question),
		zap.Int("sources", len(answer.Sources)),
	)
	return answer, nil
}

// Passages runs a keyword lookup. It fails when no passage index was configured.
func (s *Service) Passages(ctx context.Context, q models.PassageQuery) (*models.PassageResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if s.passages == nil {
		return nil, errors.New("passage lookup is not available")
	}
	hits, err := s.passages.Search(ctx, q.Query, q.Limit, &keyword.SearchOptions{SourceBoost: 2, Fuzzy: true})
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}
	return &models.PassageResponse{Query: q.Query, Passages: hits, Total: len(hits)}, nil
}
