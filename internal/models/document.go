// Package models defines the core data structures shared by ingestion, retrieval and answering.
package models

import (
	"strconv"
	"time"
)

// UnknownPage marks a record or chunk whose source format has no page concept.
const UnknownPage = 0

// DocumentRecord is one unit of loader output: the text of a single page (or of a
// whole file when the format has no pages) plus its provenance.
type DocumentRecord struct {
	Text   string `json:"text"`
	Page   int    `json:"page,omitempty"`
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
}

// PageLabel renders the page for citations; unknown pages render as "?".
func (r DocumentRecord) PageLabel() string {
	return pageLabel(r.Page)
}

// Chunk is a bounded slice of one DocumentRecord. Source and Page are copied
// from the record it was cut from and never change afterwards.
type Chunk struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Source  string `json:"source"`
	Page    int    `json:"page,omitempty"`
	Ordinal int    `json:"ordinal"`
}

// PageLabel renders the page for citations; unknown pages render as "?".
func (c Chunk) PageLabel() string {
	return pageLabel(c.Page)
}

// ScoredChunk is a search hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Document is the catalog entry for one ingested file.
type Document struct {
	Source    string    `json:"source" db:"source"`
	Path      string    `json:"path" db:"path"`
	Pages     int       `json:"pages" db:"pages"`
	Chunks    int       `json:"chunks" db:"chunks"`
	IndexedAt time.Time `json:"indexed_at" db:"indexed_at"`
}

func pageLabel(page int) string {
	if page <= UnknownPage {
		return "?"
	}
	return strconv.Itoa(page)
}
