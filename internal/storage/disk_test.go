package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "f1.txt")
	writeFile(t, f1, "hello")

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(filepath.Join(sub, "deep"), 0755))
	writeFile(t, filepath.Join(sub, "a"), "ab")
	writeFile(t, filepath.Join(sub, "deep", "b"), "c")

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{f1}, 5},
		{"nested dir", []string{sub}, 3},
		{"file and dir", []string{f1, sub}, 8},
		{"missing skipped", []string{f1, filepath.Join(dir, "nope"), sub}, 8},
		{"empty skipped", []string{"", f1}, 5},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kotae.db")

	size, err := DatabaseSize(path)
	require.NoError(t, err)
	assert.Zero(t, size)

	size, err = DatabaseSize("")
	require.NoError(t, err)
	assert.Zero(t, size)

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.PutEmbeddings(context.Background(), "m", map[string][]float32{"h": {1, 2}}))

	size, err = DatabaseSize(path)
	require.NoError(t, err)
	assert.Positive(t, size)
}
