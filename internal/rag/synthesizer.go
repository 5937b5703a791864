package rag

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/llm"
)

// Synthesizer renders the prompt and asks the model for an answer at
// temperature 0. The reply is not checked against the context except for the
// optional numbers warning.
type Synthesizer struct {
	generator llm.Generator
	template  *PromptTemplate
	maxTokens int
	verify    bool
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer around generator.
func NewSynthesizer(generator llm.Generator, opts ...Option) *Synthesizer {
	s := newSettings(opts)
	return &Synthesizer{
		generator: generator,
		template:  s.template,
		maxTokens: s.maxTokens,
		verify:    s.verifyNumbers,
		logger:    s.logger,
	}
}

// Synthesize answers question from the retrieved context text.
func (s *Synthesizer) Synthesize(ctx context.Context, contextText, question string) (string, error) {
	prompt := s.template.Render(contextText, question)
	reply, err := s.generator.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature: 0,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", upstreamError("failed to generate answer", err)
	}

	answer := normalizeAnswer(reply)
	if answer == "" {
		s.logger.Warn("model returned an empty answer", zap.String("question", question))
		return NotFoundAnswer, nil
	}
	if s.verify && answer != NotFoundAnswer {
		if missing := UnsupportedNumbers(answer, contextText); len(missing) > 0 {
			s.logger.Warn("answer states numbers not found in context",
				zap.String("question", question),
				zap.Strings("numbers", missing),
			)
		}
	}
	return answer, nil
}

// notFoundVariants are lowercase not-found replies that normalize to NotFoundAnswer.
var notFoundVariants = map[string]bool{
	"i don't know from the provided material":  true,
	"i don't know from the provided materials": true,
	"i don't know from the provided documents": true,
	"i don't know from the provided pdfs":      true,
}

// normalizeAnswer trims the reply and maps any form of the not-found sentence
// to NotFoundAnswer.
func normalizeAnswer(reply string) string {
	answer := strings.TrimSpace(reply)
	folded := strings.Trim(answer, "\"'`“”")
	folded = strings.ToLower(strings.Join(strings.Fields(folded), " "))
	folded = strings.ReplaceAll(folded, "’", "'")
	folded = strings.TrimRight(folded, ".! ")
	if notFoundVariants[folded] {
		return NotFoundAnswer
	}
	return answer
}
