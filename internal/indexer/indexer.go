package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// Indexer loads a corpus and builds the vector index, the keyword index and
// the catalog from it. A build either completes or fails as a whole.
type Indexer struct {
	loader    *extract.Loader
	chunker   *Chunker
	embedder  embedding.Embedder
	catalog   storage.Catalog // optional
	model     string
	metric    vector.Metric
	batchSize int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithCatalog records the corpus in catalog and reuses its cached embeddings.
func WithCatalog(c storage.Catalog) IndexerOption {
	return func(idx *Indexer) { idx.catalog = c }
}

// WithEmbeddingModel names the embedding model; cached vectors are keyed by it.
func WithEmbeddingModel(name string) IndexerOption {
	return func(idx *Indexer) { idx.model = name }
}

// WithMetric sets the vector similarity metric.
func WithMetric(m vector.Metric) IndexerOption {
	return func(idx *Indexer) { idx.metric = m }
}

// WithBatchSize sets how many chunks go into one embedding call.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) { idx.batchSize = n }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(loader *extract.Loader, chunker *Chunker, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		model:     "default",
		metric:    vector.MetricCosine,
		batchSize: 32,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// BuildResult is everything a finished build produced.
type BuildResult struct {
	Index     *vector.Index
	Keyword   *keyword.Index
	Documents []models.Document
	Chunks    []models.Chunk
	Records   int
	CacheHits int64
	Duration  time.Duration
}

// Close releases the keyword index.
func (r *BuildResult) Close() error {
	if r.Keyword == nil {
		return nil
	}
	return r.Keyword.Close()
}

// Build loads every path, chunks the records and embeds the chunks. Any missing
// document or failed embedding aborts the build.
func (idx *Indexer) Build(ctx context.Context, paths []string) (*BuildResult, error) {
	started := time.Now()

	records, err := idx.loader.LoadAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	chunks := idx.chunker.Split(records)
	if idx.logger != nil {
		idx.logger.Info("corpus loaded",
			zap.Int("records", len(records)),
			zap.Int("chunks", len(chunks)),
			zap.Int("chunk_size", idx.chunker.Size()),
			zap.Int("chunk_overlap", idx.chunker.Overlap()),
		)
	}

	embedder := idx.embedder
	var cached *persistentEmbedder
	if idx.catalog != nil {
		cached = newPersistentEmbedder(idx.embedder, idx.catalog, idx.model)
		embedder = cached
	}

	vecIndex, err := vector.Build(ctx, chunks, embedder,
		vector.WithMetric(idx.metric),
		vector.WithBatchSize(idx.batchSize),
		vector.WithLogger(idx.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}

	kwIndex, err := keyword.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}

	docs := summarize(records, chunks, started)
	if idx.catalog != nil {
		if err := idx.catalog.ReplaceCorpus(ctx, docs, chunks); err != nil {
			_ = kwIndex.Close()
			return nil, fmt.Errorf("failed to store catalog: %w", err)
		}
	}

	result := &BuildResult{
		Index:     vecIndex,
		Keyword:   kwIndex,
		Documents: docs,
		Chunks:    chunks,
		Records:   len(records),
		Duration:  time.Since(started),
	}
	if cached != nil {
		result.CacheHits = cached.hits.Load()
	}
	if idx.logger != nil {
		idx.logger.Info("index built",
			zap.Int("documents", len(docs)),
			zap.Int("chunks", len(chunks)),
			zap.Int("dimensions", vecIndex.Dimensions()),
			zap.Int64("cache_hits", result.CacheHits),
			zap.Duration("duration", result.Duration),
		)
	}
	return result, nil
}

// summarize groups records and chunks per source file, in first-seen order.
func summarize(records []models.DocumentRecord, chunks []models.Chunk, at time.Time) []models.Document {
	bySource := make(map[string]*models.Document)
	var order []string
	for _, rec := range records {
		doc, ok := bySource[rec.Source]
		if !ok {
			doc = &models.Document{Source: rec.Source, Path: rec.Path, IndexedAt: at}
			bySource[rec.Source] = doc
			order = append(order, rec.Source)
		}
		doc.Pages++
	}
	for _, c := range chunks {
		if doc, ok := bySource[c.Source]; ok {
			doc.Chunks++
		}
	}
	docs := make([]models.Document, len(order))
	for i, s := range order {
		docs[i] = *bySource[s]
	}
	return docs
}
