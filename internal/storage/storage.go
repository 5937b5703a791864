// Package storage persists the document catalog and computed embeddings so a
// restart can skip re-embedding unchanged chunks.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Catalog records what was indexed and caches embeddings by content hash.
type Catalog interface {
	// ReplaceCorpus swaps the stored document and chunk lists for a new build.
	ReplaceCorpus(ctx context.Context, docs []models.Document, chunks []models.Chunk) error
	ListDocuments(ctx context.Context) ([]models.Document, error)
	ListChunks(ctx context.Context, source string) ([]models.Chunk, error)

	// Embedding cache, keyed by model name and content hash.
	GetEmbeddings(ctx context.Context, model string, hashes []string) (map[string][]float32, error)
	PutEmbeddings(ctx context.Context, model string, vectors map[string][]float32) error

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)
	CountEmbeddings(ctx context.Context) (int64, error)

	Close() error
}
