package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// StalenessChecker reports whether the corpus changed after the index was built.
type StalenessChecker interface {
	Stale() bool
}

// IndexStatus reports on a built index. Catalog and Watcher are optional.
type IndexStatus struct {
	Index          *vector.Index
	Documents      int
	Catalog        storage.Catalog
	DatabasePath   string
	Watcher        StalenessChecker
	EmbeddingModel string
	LLMModel       string
}

// Status implements StatusReporter. Catalog counts win over in-memory counts
// when a catalog is configured.
func (st *IndexStatus) Status(ctx context.Context) (*models.StatusResponse, error) {
	resp := &models.StatusResponse{
		Documents:      st.Documents,
		Chunks:         st.Index.Size(),
		Dimensions:     st.Index.Dimensions(),
		Metric:         string(st.Index.Metric()),
		EmbeddingModel: st.EmbeddingModel,
		LLMModel:       st.LLMModel,
	}
	if st.Watcher != nil {
		resp.Stale = st.Watcher.Stale()
	}
	if st.Catalog == nil {
		return resp, nil
	}
	docs, err := st.Catalog.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	chunks, err := st.Catalog.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	resp.Documents = int(docs)
	resp.Chunks = int(chunks)
	size, err := storage.DatabaseSize(st.DatabasePath)
	if err == nil {
		resp.DiskUsageBytes = size
	}
	return resp, nil
}
