package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashingEmbedder(256)
	assert.Equal(t, 256, e.Dimensions())

	q, err := e.Embed(ctx, "What was the net profit growth?")
	require.NoError(t, err)
	require.Len(t, q, 256)
	assert.InDelta(t, 1.0, math.Sqrt(dot(q, q)), 1e-5)

	related, _ := e.Embed(ctx, "Net profit grew 18.4% year-on-year")
	unrelated, _ := e.Embed(ctx, "The board met in Pune to discuss dividends")
	assert.Greater(t, dot(q, related), dot(q, unrelated))

	again, _ := e.Embed(ctx, "What was the net profit growth?")
	assert.Equal(t, q, again, "embedding must be deterministic")

	empty, err := e.Embed(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, dot(empty, empty))
}

func TestHashingEmbedder_Batch(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, 384, e.Dimensions())
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestHashingEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashingEmbedder(8).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
