package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/storage"
)

// persistentEmbedder serves vectors from the catalog's embedding table and only
// calls the wrapped embedder for text it has not seen with this model.
type persistentEmbedder struct {
	inner   embedding.Embedder
	catalog storage.Catalog
	model   string
	hits    atomic.Int64
	misses  atomic.Int64
}

var _ embedding.Embedder = (*persistentEmbedder)(nil)

func newPersistentEmbedder(inner embedding.Embedder, catalog storage.Catalog, model string) *persistentEmbedder {
	return &persistentEmbedder{
		inner:   inner,
		catalog: catalog,
		model:   fmt.Sprintf("%s/%d", model, inner.Dimensions()),
	}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (p *persistentEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (p *persistentEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	hashes := make([]string, len(texts))
	for i, t := range texts {
		hashes[i] = contentHash(t)
	}
	cached, err := p.catalog.GetEmbeddings(ctx, p.model, hashes)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, h := range hashes {
		if v, ok := cached[h]; ok && len(v) == p.inner.Dimensions() {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	p.hits.Add(int64(len(texts) - len(missIdx)))
	p.misses.Add(int64(len(missIdx)))
	if len(missIdx) == 0 {
		return out, nil
	}

	fresh, err := p.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}
	toStore := make(map[string][]float32, len(fresh))
	for j, i := range missIdx {
		out[i] = fresh[j]
		toStore[hashes[i]] = fresh[j]
	}
	if err := p.catalog.PutEmbeddings(ctx, p.model, toStore); err != nil {
		return nil, fmt.Errorf("failed to write embedding cache: %w", err)
	}
	return out, nil
}

func (p *persistentEmbedder) Dimensions() int {
	return p.inner.Dimensions()
}

// Close is a no-op; the wrapped embedder belongs to the caller.
func (p *persistentEmbedder) Close() error {
	return nil
}
