package rag

import "go.uber.org/zap"

type settings struct {
	logger        *zap.Logger
	minScore      float64
	template      *PromptTemplate
	maxTokens     int
	verifyNumbers bool
	passages      PassageSearcher
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:   zap.NewNop(),
		template: DefaultTemplate(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures the retriever, the synthesizer and the service. Each
// reads only the settings it needs.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMinScore drops search candidates scoring below floor. 0 disables it;
// a negative floor applies to L2 scores, which are negated distances.
func WithMinScore(floor float64) Option {
	return func(s *settings) { s.minScore = floor }
}

// WithTemplate replaces the default prompt.
func WithTemplate(t *PromptTemplate) Option {
	return func(s *settings) {
		if t != nil {
			s.template = t
		}
	}
}

// WithMaxTokens caps the model reply length.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = n }
}

// WithNumberCheck logs numbers stated in an answer that its context does not contain.
func WithNumberCheck(enabled bool) Option {
	return func(s *settings) { s.verifyNumbers = enabled }
}

// WithPassages enables keyword passage lookup on the service.
func WithPassages(p PassageSearcher) Option {
	return func(s *settings) { s.passages = p }
}
