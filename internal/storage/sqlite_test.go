package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "kotae.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_ReplaceCorpus(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	docs := []models.Document{
		{Source: "report.pdf", Path: "/docs/report.pdf", Pages: 3, Chunks: 2, IndexedAt: time.Now()},
		{Source: "notes.txt", Path: "/docs/notes.txt", Pages: 1, Chunks: 1},
	}
	chunks := []models.Chunk{
		{ID: "a", Text: "first", Source: "report.pdf", Page: 1, Ordinal: 0},
		{ID: "b", Text: "second", Source: "report.pdf", Page: 3, Ordinal: 1},
		{ID: "c", Text: "note", Source: "notes.txt", Page: models.UnknownPage, Ordinal: 0},
	}
	require.NoError(t, store.ReplaceCorpus(ctx, docs, chunks))

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = store.CountChunks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	listed, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "notes.txt", listed[0].Source)
	assert.Equal(t, "report.pdf", listed[1].Source)
	assert.Equal(t, 3, listed[1].Pages)
	assert.False(t, listed[0].IndexedAt.IsZero())

	got, err := store.ListChunks(ctx, "report.pdf")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[0], got[0])
	assert.Equal(t, chunks[1], got[1])

	// A second build replaces everything.
	require.NoError(t, store.ReplaceCorpus(ctx, docs[1:], chunks[2:]))
	n, err = store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	got, err = store.ListChunks(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStorage_Embeddings(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutEmbeddings(ctx, "m1", map[string][]float32{
		"h1": {0.5, -0.25},
		"h2": {1, 0},
	}))
	require.NoError(t, store.PutEmbeddings(ctx, "m2", map[string][]float32{
		"h1": {9, 9},
	}))
	require.NoError(t, store.PutEmbeddings(ctx, "m1", nil))

	got, err := store.GetEmbeddings(ctx, "m1", []string{"h1", "h3"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []float32{0.5, -0.25}, got["h1"])

	got, err = store.GetEmbeddings(ctx, "m2", []string{"h1"})
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9}, got["h1"])

	n, err := store.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// Embeddings survive a corpus replacement.
	require.NoError(t, store.ReplaceCorpus(ctx, nil, nil))
	n, err = store.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSQLiteStorage_GetEmbeddingsLargeBatch(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	vectors := make(map[string][]float32)
	hashes := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		h := fmt.Sprintf("hash-%04d", i)
		hashes = append(hashes, h)
		if i%2 == 0 {
			vectors[h] = []float32{float32(i)}
		}
	}
	require.NoError(t, store.PutEmbeddings(ctx, "m", vectors))

	got, err := store.GetEmbeddings(ctx, "m", hashes)
	require.NoError(t, err)
	assert.Len(t, got, 600)

	got, err = store.GetEmbeddings(ctx, "m", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStorage_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kotae.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.PutEmbeddings(ctx, "m", map[string][]float32{"h": {1, 2, 3}}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStorage(path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.GetEmbeddings(ctx, "m", []string{"h"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got["h"])
	assert.Equal(t, path, store.Path())
}
