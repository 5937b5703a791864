package models

import (
	"fmt"
	"strings"
)

// AskRequest is the body of an ask call.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects blank input.
func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty: %w", ErrEmptyQuestion)
	}
	return nil
}

// AskResponse mirrors the answer for HTTP clients. Sources and Numbers are only
// filled on the versioned endpoint.
type AskResponse struct {
	Question string     `json:"question"`
	Answer   string     `json:"answer"`
	Sources  []Citation `json:"sources,omitempty"`
	Numbers  []string   `json:"numbers,omitempty"`
}

// PassageQuery is a keyword lookup over indexed chunks.
type PassageQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query is non-empty and clamps the limit to [1, 50], defaulting to 5.
func (q *PassageQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty: %w", ErrEmptyQuestion)
	}
	if q.Limit <= 0 {
		q.Limit = 5
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	return nil
}

// PassageResponse is the result of a keyword lookup.
type PassageResponse struct {
	Query    string        `json:"query"`
	Passages []ScoredChunk `json:"passages"`
	Total    int           `json:"total"`
}

// StatusResponse describes the loaded index.
type StatusResponse struct {
	Documents      int    `json:"documents"`
	Chunks         int    `json:"chunks"`
	Dimensions     int    `json:"dimensions"`
	Metric         string `json:"metric"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model"`
	Stale          bool   `json:"stale"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
}
