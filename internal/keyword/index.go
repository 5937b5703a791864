// Package keyword provides an in-memory Bleve index over chunk text for
// passage lookup. Answer retrieval does not use it.
package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kotae/internal/models"
)

// SearchOptions optional parameters for passage search. Nil means use defaults.
type SearchOptions struct {
	// SourceBoost multiplies the score contribution from matches in the source
	// file name. Values <= 1 search content and source as one field.
	SourceBoost float64
	// Fuzzy enables typo-tolerant matching of each query term.
	Fuzzy bool
	// Fuzziness is the maximum edit distance when Fuzzy is set (default 1, max 2).
	Fuzziness int
}

// passage is the document shape handed to Bleve.
type passage struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Index is an immutable keyword index over a set of chunks.
type Index struct {
	index  bleve.Index
	chunks map[string]models.Chunk
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer, no stemming, so figures and names match as written.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("source", textFieldMapping)
	im.AddDocumentMapping("passage", docMapping)
	im.DefaultType = "passage"
	im.DefaultMapping = docMapping
	return im
}

// Build indexes every chunk in a memory-only Bleve index.
func Build(ctx context.Context, chunks []models.Chunk) (*Index, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	idx := &Index{index: index, chunks: make(map[string]models.Chunk, len(chunks))}

	batch := index.NewBatch()
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			_ = index.Close()
			return nil, err
		}
		doc := passage{Content: c.Text, Source: normalizeSource(c.Source)}
		if err := batch.Index(c.ID, doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
		idx.chunks[c.ID] = c
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index chunks: %w", err)
		}
	}
	return idx, nil
}

// normalizeSource turns "annual_report-2023.pdf" into "annual report 2023 pdf"
// because the standard analyzer keeps "report.pdf" and "a_b" as single tokens.
func normalizeSource(source string) string {
	return strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(source)
}

// Size returns the number of indexed chunks.
func (x *Index) Size() int {
	return len(x.chunks)
}

// Search returns up to limit chunks matching query, best first.
func (x *Index) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]models.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 || len(x.chunks) == 0 {
		return []models.ScoredChunk{}, nil
	}
	var o SearchOptions
	if opts != nil {
		o = *opts
	}
	if o.Fuzziness <= 0 {
		o.Fuzziness = 1
	}
	if o.Fuzziness > 2 {
		o.Fuzziness = 2
	}

	scores := make(map[string]float64)
	if o.SourceBoost <= 1 {
		if err := x.collect(ctx, x.buildQuery(query, o, ""), limit, 1, scores); err != nil {
			return nil, err
		}
	} else {
		// Additive: a chunk can score on both fields.
		reqSize := max(limit*2, 50)
		if err := x.collect(ctx, x.buildQuery(query, o, "content"), reqSize, 1, scores); err != nil {
			return nil, err
		}
		if err := x.collect(ctx, x.buildQuery(query, o, "source"), reqSize, o.SourceBoost, scores); err != nil {
			return nil, err
		}
	}
	return x.rank(scores, limit), nil
}

func (x *Index) collect(ctx context.Context, q blevequery.Query, size int, weight float64, into map[string]float64) error {
	req := bleve.NewSearchRequest(q)
	req.Size = size
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return fmt.Errorf("bleve search failed: %w", err)
	}
	for _, hit := range res.Hits {
		into[hit.ID] += hit.Score * weight
	}
	return nil
}

// buildQuery makes a match query, or a disjunction of fuzzy term queries when
// fuzzy matching is on. An empty field searches all fields.
func (x *Index) buildQuery(query string, o SearchOptions, field string) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	if !o.Fuzzy || len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(o.Fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// rank orders hits by score, then by source, page and ordinal so results are stable.
func (x *Index) rank(scores map[string]float64, limit int) []models.ScoredChunk {
	out := make([]models.ScoredChunk, 0, len(scores))
	for id, score := range scores {
		c, ok := x.chunks[id]
		if !ok {
			continue
		}
		out = append(out, models.ScoredChunk{Chunk: c, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.Source != b.Chunk.Source {
			return a.Chunk.Source < b.Chunk.Source
		}
		if a.Chunk.Page != b.Chunk.Page {
			return a.Chunk.Page < b.Chunk.Page
		}
		return a.Chunk.Ordinal < b.Chunk.Ordinal
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Close releases the Bleve index.
func (x *Index) Close() error {
	return x.index.Close()
}
