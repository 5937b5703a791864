// Package vector provides the build-once, in-memory nearest-neighbour index over chunk embeddings.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Metric is the similarity function used to compare vectors.
type Metric string

const (
	// MetricCosine ranks by cosine similarity. Stored vectors are normalised at build time.
	MetricCosine Metric = "cosine"
	// MetricL2 ranks by negative Euclidean distance, so larger is still closer.
	MetricL2 Metric = "l2"
)

// ParseMetric converts a config string to a Metric. Empty means cosine.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, "":
		return MetricCosine, nil
	case MetricL2:
		return MetricL2, nil
	default:
		return "", fmt.Errorf("unknown metric: %s (supported: cosine, l2)", s)
	}
}

// Index holds (chunk, vector) pairs in insertion order. It has no mutating
// methods, so one Index may be searched from many goroutines.
type Index struct {
	metric  Metric
	dims    int
	chunks  []models.Chunk
	vectors [][]float32
}

type buildOptions struct {
	metric    Metric
	batchSize int
	logger    *zap.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithMetric sets the similarity metric (default cosine).
func WithMetric(m Metric) BuildOption {
	return func(o *buildOptions) { o.metric = m }
}

// WithBatchSize sets how many chunks are embedded per EmbedBatch call (default 32).
func WithBatchSize(n int) BuildOption {
	return func(o *buildOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// Build embeds every chunk with embedder and returns the finished index.
// Any embedding failure aborts the build.
func Build(ctx context.Context, chunks []models.Chunk, embedder embedding.Embedder, opts ...BuildOption) (*Index, error) {
	o := buildOptions{metric: MetricCosine, batchSize: 32}
	for _, opt := range opts {
		opt(&o)
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += o.batchSize {
		end := min(start+o.batchSize, len(chunks))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Text
		}
		batch, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: got %d vectors", start, end-1, len(batch))
		}
		vectors = append(vectors, batch...)
		if o.logger != nil {
			o.logger.Debug("embedded batch", zap.Int("done", end), zap.Int("total", len(chunks)))
		}
	}
	return New(o.metric, embedder.Dimensions(), chunks, vectors)
}

// New builds an index from precomputed vectors. vectors[i] belongs to chunks[i].
// Every vector must have dims elements. Inputs are copied.
func New(metric Metric, dims int, chunks []models.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if dims <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	idx := &Index{
		metric:  metric,
		dims:    dims,
		chunks:  append([]models.Chunk(nil), chunks...),
		vectors: make([][]float32, len(vectors)),
	}
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("dimension mismatch at chunk %d: got %d, want %d", i, len(v), dims)
		}
		cp := append([]float32(nil), v...)
		if metric == MetricCosine {
			utils.NormalizeL2(cp)
		}
		idx.vectors[i] = cp
	}
	return idx, nil
}

// Search returns the min(k, Size()) chunks most similar to query, best first.
// Equal scores keep insertion order. An empty index or k <= 0 yields an empty
// result; otherwise a query of the wrong dimension is an error.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 || len(x.vectors) == 0 {
		return []models.ScoredChunk{}, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), x.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := query
	if x.metric == MetricCosine {
		q = append([]float32(nil), query...)
		utils.NormalizeL2(q)
	}

	order := make([]int, len(x.vectors))
	scores := make([]float64, len(x.vectors))
	for i, v := range x.vectors {
		order[i] = i
		scores[i] = x.score(q, v)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k = min(k, len(order))
	out := make([]models.ScoredChunk, k)
	for i := 0; i < k; i++ {
		out[i] = models.ScoredChunk{Chunk: x.chunks[order[i]], Score: scores[order[i]]}
	}
	return out, nil
}

func (x *Index) score(q, v []float32) float64 {
	s := x.metric.similarity(q, v)
	if math.IsNaN(s) {
		return math.Inf(-1)
	}
	return s
}

// Size returns the number of entries.
func (x *Index) Size() int {
	return len(x.chunks)
}

// Dimensions returns the vector dimension.
func (x *Index) Dimensions() int {
	return x.dims
}

// Metric returns the similarity metric.
func (x *Index) Metric() Metric {
	return x.metric
}

// Chunks returns a copy of the indexed chunks in insertion order.
func (x *Index) Chunks() []models.Chunk {
	return append([]models.Chunk(nil), x.chunks...)
}
