package config

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// Validate checks settings that would otherwise fail at query time.
// Errors wrap models.ErrConfiguration.
func (c *Config) Validate() error {
	if len(c.Corpus.Paths) == 0 {
		return fmt.Errorf("%w: corpus.paths must list at least one document", models.ErrConfiguration)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunking.chunk_size must be positive, got %d", models.ErrConfiguration, c.Chunking.ChunkSize)
	}
	if o := c.Chunking.Overlap(); o < 0 || o >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunking.chunk_overlap must be in [0, %d), got %d", models.ErrConfiguration, c.Chunking.ChunkSize, o)
	}
	if c.Retrieval.KKeep < 1 {
		return fmt.Errorf("%w: retrieval.k_keep must be at least 1, got %d", models.ErrConfiguration, c.Retrieval.KKeep)
	}
	if c.Retrieval.KSearch < c.Retrieval.KKeep {
		return fmt.Errorf("%w: retrieval.k_search (%d) must be >= k_keep (%d)", models.ErrConfiguration, c.Retrieval.KSearch, c.Retrieval.KKeep)
	}
	if c.Retrieval.Metric != "cosine" && c.Retrieval.Metric != "l2" {
		return fmt.Errorf("%w: retrieval.metric must be cosine or l2, got %q", models.ErrConfiguration, c.Retrieval.Metric)
	}
	if c.Retrieval.Metric == "l2" && c.Retrieval.MinScore > 0 {
		return fmt.Errorf("%w: retrieval.min_score must be <= 0 with metric l2 (scores are negated distances), got %g", models.ErrConfiguration, c.Retrieval.MinScore)
	}
	if c.Retrieval.Metric == "cosine" && (c.Retrieval.MinScore < -1 || c.Retrieval.MinScore > 1) {
		return fmt.Errorf("%w: retrieval.min_score must be in [-1, 1] with metric cosine, got %g", models.ErrConfiguration, c.Retrieval.MinScore)
	}
	switch c.Embedding.Provider {
	case ProviderONNX, ProviderOpenAI, ProviderOllama, ProviderHashing:
	default:
		return fmt.Errorf("%w: unknown embedding.provider %q", models.ErrConfiguration, c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", models.ErrConfiguration)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", models.ErrConfiguration, c.LLM.Provider)
	}
	return nil
}
