package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

type mockService struct {
	answer  *models.Answer
	hits    []models.ScoredChunk
	err     error
	lastQry models.PassageQuery
}

func (m *mockService) Ask(_ context.Context, question string) (*models.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &models.Answer{Question: question, Text: "I don't know from the provided material."}, nil
}

func (m *mockService) Passages(_ context.Context, q models.PassageQuery) (*models.PassageResponse, error) {
	m.lastQry = q
	if m.err != nil {
		return nil, m.err
	}
	return &models.PassageResponse{Query: q.Query, Passages: m.hits, Total: len(m.hits)}, nil
}

type mockCatalog struct {
	docs   []models.Document
	chunks map[string][]models.Chunk
	err    error
}

func (m *mockCatalog) ListDocuments(context.Context) ([]models.Document, error) {
	return m.docs, m.err
}

func (m *mockCatalog) ListChunks(_ context.Context, source string) ([]models.Chunk, error) {
	return m.chunks[source], m.err
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(&Ports{}, "test")
	assert.ErrorIs(t, err, ErrMissingService)

	s, err := NewServer(&Ports{Service: &mockService{}}, "test")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		svc := &mockService{answer: &models.Answer{
			Text:    "Net profit grew 18.4%.",
			Sources: []models.Citation{{Source: "report.pdf", Page: 3, Score: 0.9}},
		}}
		s, err := NewServer(&Ports{Service: svc}, "test")
		require.NoError(t, err)

		_, out, err := s.handleAsk(ctx, nil, AskInput{Question: "What was the net profit growth?"})
		require.NoError(t, err)
		assert.Equal(t, "Net profit grew 18.4%.", out.Answer)
		assert.Equal(t, svc.answer.Sources, out.Sources)
	})

	t.Run("not found has empty sources", func(t *testing.T) {
		s, err := NewServer(&Ports{Service: &mockService{}}, "test")
		require.NoError(t, err)

		_, out, err := s.handleAsk(ctx, nil, AskInput{Question: "Who painted the Mona Lisa?"})
		require.NoError(t, err)
		assert.Equal(t, "I don't know from the provided material.", out.Answer)
		assert.NotNil(t, out.Sources)
		assert.Empty(t, out.Sources)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"sources":[]`)
	})

	t.Run("propagates errors", func(t *testing.T) {
		s, err := NewServer(&Ports{Service: &mockService{err: fmt.Errorf("llm: %w", models.ErrUpstream)}}, "test")
		require.NoError(t, err)

		_, _, err = s.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, models.ErrUpstream)
	})
}

func TestServer_handlePassages(t *testing.T) {
	svc := &mockService{hits: []models.ScoredChunk{
		{Chunk: models.Chunk{Source: "report.pdf", Page: 3, Text: "Net profit grew 18.4%"}, Score: 2.5},
		{Chunk: models.Chunk{Source: "minutes.txt", Text: "profit sharing"}, Score: 1.0},
	}}
	s, err := NewServer(&Ports{Service: svc}, "test")
	require.NoError(t, err)

	_, out, err := s.handlePassages(context.Background(), nil, PassagesInput{Query: "profit", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, models.PassageQuery{Query: "profit", Limit: 2}, svc.lastQry)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, PassageOutput{Source: "report.pdf", Page: "3", Score: 2.5, Text: "Net profit grew 18.4%"}, out.Passages[0])
	assert.Equal(t, "?", out.Passages[1].Page)

	s, err = NewServer(&Ports{Service: &mockService{err: errors.New("index closed")}}, "test")
	require.NoError(t, err)
	_, _, err = s.handlePassages(context.Background(), nil, PassagesInput{Query: "profit"})
	assert.EqualError(t, err, "index closed")
}

func TestServer_documentResources(t *testing.T) {
	ctx := context.Background()
	catalog := &mockCatalog{
		docs: []models.Document{{Source: "report.pdf", Pages: 2, Chunks: 3}},
		chunks: map[string][]models.Chunk{
			"report.pdf": {
				{Source: "report.pdf", Page: 1, Ordinal: 0, Text: "Annual report"},
				{Source: "report.pdf", Page: 1, Ordinal: 1, Text: "for fiscal 2024"},
				{Source: "report.pdf", Page: 2, Ordinal: 0, Text: "Revenue rose"},
			},
		},
	}
	s, err := NewServer(&Ports{Service: &mockService{}, Catalog: catalog}, "test")
	require.NoError(t, err)

	res, err := s.handleDocumentsResource(ctx, makeReadResourceRequest("kotae://documents"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"source": "report.pdf"`)

	res, err = s.handleDocumentTextResource(ctx, makeReadResourceRequest("kotae://documents/report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "[page 1]\nAnnual report\nfor fiscal 2024\n\n[page 2]\nRevenue rose\n", res.Contents[0].Text)

	_, err = s.handleDocumentTextResource(ctx, makeReadResourceRequest("kotae://documents/missing.pdf"))
	assert.Error(t, err)

	catalog.err = errors.New("db closed")
	_, err = s.handleDocumentsResource(ctx, makeReadResourceRequest("kotae://documents"))
	assert.ErrorContains(t, err, "db closed")
}

func TestExtractSource(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"kotae://documents/report.pdf", "report.pdf"},
		{"kotae://documents/", ""},
		{"kotae://documents/a/b", ""},
		{"kotae://documents/fy24%2Freport.txt", "fy24/report.txt"},
		{"kotae://documents/annual%20report.pdf", "annual report.pdf"},
		{"kotae://documents/bad%zz", ""},
		{"file://documents/report.pdf", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractSource(tt.uri), tt.uri)
	}
}
