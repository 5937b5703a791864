package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyperjump/kotae/internal/models"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string            `json:"answer"`
	Sources []models.Citation `json:"sources"`
}

// PassagesInput is the input schema for the passages tool.
type PassagesInput struct {
	Query string `json:"query" jsonschema:"keywords to look up"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5, max 50)"`
}

// PassagesOutput is the output schema for the passages tool.
type PassagesOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput is one passage with its citation.
type PassageOutput struct {
	Source string  `json:"source"`
	Page   string  `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documents, with page citations",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "passages",
		Description: "Find passages in the indexed documents by keyword",
	}, s.handlePassages)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Service.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	sources := answer.Sources
	if sources == nil {
		sources = []models.Citation{}
	}
	return nil, AskOutput{Answer: answer.Text, Sources: sources}, nil
}

func (s *Server) handlePassages(ctx context.Context, _ *mcp.CallToolRequest, input PassagesInput) (*mcp.CallToolResult, PassagesOutput, error) {
	resp, err := s.ports.Service.Passages(ctx, models.PassageQuery{Query: input.Query, Limit: input.Limit})
	if err != nil {
		return nil, PassagesOutput{}, err
	}
	out := PassagesOutput{
		Passages: make([]PassageOutput, len(resp.Passages)),
		Count:    len(resp.Passages),
	}
	for i, p := range resp.Passages {
		out.Passages[i] = PassageOutput{
			Source: p.Chunk.Source,
			Page:   p.Chunk.PageLabel(),
			Score:  p.Score,
			Text:   p.Chunk.Text,
		}
	}
	return nil, out, nil
}
