package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// Components holds the built index and everything that serves it.
type Components struct {
	Config    *config.Config
	Storage   *storage.SQLiteStorage // nil when storage is disabled
	Embedder  embedding.Embedder
	Generator llm.Generator // nil unless answering was requested
	Build     *indexer.BuildResult
	Service   *rag.Service
}

// Close releases the indexes, the models and the database.
func (c *Components) Close() {
	if c.Build != nil {
		_ = c.Build.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// Status reports on the loaded index for /api/v1/status.
func (c *Components) Status(w server.StalenessChecker) *server.IndexStatus {
	st := &server.IndexStatus{
		Index:          c.Build.Index,
		Documents:      len(c.Build.Documents),
		Watcher:        w,
		EmbeddingModel: embeddingModelName(c.Config.Embedding),
	}
	if c.Generator != nil {
		st.LLMModel = c.Generator.Model()
	}
	if c.Storage != nil {
		st.Catalog = c.Storage
		st.DatabasePath = c.Storage.Path()
	}
	return st
}

func embeddingModelName(cfg config.EmbeddingConfig) string {
	if cfg.Provider == config.ProviderHashing {
		return cfg.Provider
	}
	return cfg.Provider + ":" + cfg.Model
}

// initializeComponents builds the index from the configured corpus. When
// answering is false no language model is created and the service only
// serves passage lookups. Configuration and ingestion errors are returned
// before anything is served.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, answering bool) (*Components, error) {
	c := &Components{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	if answering {
		gen, err := llm.NewFromConfig(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize language model: %w", err)
		}
		c.Generator = gen
	}

	emb, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = emb

	chunker, err := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap())
	if err != nil {
		return nil, err
	}
	metric, err := vector.ParseMetric(cfg.Retrieval.Metric)
	if err != nil {
		return nil, err
	}

	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(logger),
		indexer.WithEmbeddingModel(embeddingModelName(cfg.Embedding)),
		indexer.WithMetric(metric),
		indexer.WithBatchSize(cfg.Embedding.BatchSize),
	}
	if !cfg.Storage.Disabled {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		idxOpts = append(idxOpts, indexer.WithCatalog(store))
	}

	idx := indexer.NewIndexer(extract.NewLoader(extract.WithLogger(logger)), chunker, emb, idxOpts...)
	build, err := idx.Build(ctx, cfg.Corpus.Paths)
	if err != nil {
		return nil, err
	}
	c.Build = build

	ragOpts := []rag.Option{
		rag.WithLogger(logger),
		rag.WithPassages(build.Keyword),
		rag.WithMinScore(cfg.Retrieval.MinScore),
		rag.WithMaxTokens(cfg.LLM.MaxTokens),
		rag.WithNumberCheck(cfg.Synthesis.VerifyNumbersOrDefault()),
	}
	if !answering {
		c.Service = rag.NewService(nil, nil, ragOpts...)
		ok = true
		return c, nil
	}

	queryEmbedder := embedding.NewCachedEmbedder(emb, cfg.Embedding.CacheSize)
	retriever, err := rag.NewRetriever(build.Index, queryEmbedder, cfg.Retrieval.KSearch, cfg.Retrieval.KKeep, ragOpts...)
	if err != nil {
		return nil, err
	}
	c.Service = rag.NewService(retriever, rag.NewSynthesizer(c.Generator, ragOpts...), ragOpts...)
	ok = true
	return c, nil
}
