package models

// RetrievedContext is the per-query context handed to synthesis. It is built
// fresh for every question and discarded afterwards.
type RetrievedContext struct {
	Text    string        `json:"text"`
	Chunks  []ScoredChunk `json:"chunks"`
	Numbers []string      `json:"numbers,omitempty"`
}

// Citation points at the chunk an answer was drawn from.
type Citation struct {
	Source string  `json:"source"`
	Page   int     `json:"page,omitempty"`
	Score  float64 `json:"score"`
}

// Answer is the result of answering one question.
// Grounded is false when nothing was retrievable and the model was not called.
type Answer struct {
	Question string     `json:"question"`
	Text     string     `json:"answer"`
	Sources  []Citation `json:"sources,omitempty"`
	Numbers  []string   `json:"numbers,omitempty"`
	Grounded bool       `json:"grounded"`
}

// CitationsFrom converts retrieved chunks to citations, preserving rank order.
func CitationsFrom(chunks []ScoredChunk) []Citation {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]Citation, len(chunks))
	for i, sc := range chunks {
		out[i] = Citation{Source: sc.Chunk.Source, Page: sc.Chunk.Page, Score: sc.Score}
	}
	return out
}
