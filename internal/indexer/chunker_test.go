package indexer

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(size, overlap)
	require.NoError(t, err)
	return c
}

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
		wantErr       bool
	}{
		{"defaults", 800, 150, false},
		{"zero overlap", 10, 0, false},
		{"overlap equals size", 10, 10, true},
		{"overlap above size", 10, 11, true},
		{"negative overlap", 10, -1, true},
		{"zero size", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrConfiguration))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestChunker_SplitText(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
		text          string
		want          []string
	}{
		{
			name: "fits in one chunk",
			size: 20, overlap: 5,
			text: "  short   text\n",
			want: []string{"short text"},
		},
		{
			name: "splits before spaces with overlap",
			size: 10, overlap: 3,
			text: "aaaa bbbb cccc dddd",
			want: []string{"aaaa bbbb", "bbb cccc", "ccc dddd"},
		},
		{
			name: "zero overlap skips the separating space",
			size: 9, overlap: 0,
			text: "aaaa bbbb cccc",
			want: []string{"aaaa bbbb", "cccc"},
		},
		{
			name: "unsplittable run becomes one oversized chunk",
			size: 5, overlap: 1,
			text: "abcdefghij klm",
			want: []string{"abcdefghij", "j klm"},
		},
		{
			name: "no whitespace at all",
			size: 5, overlap: 2,
			text: "abcdefghijkl",
			want: []string{"abcdefghijkl"},
		},
		{
			name: "blank input",
			size: 5, overlap: 2,
			text: " \t\n ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustChunker(t, tt.size, tt.overlap).SplitText(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func randomText(rng *rand.Rand, words int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzéñü0123456789%"
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteString(strings.Repeat(" ", 1+rng.Intn(2)))
		}
		n := 1 + rng.Intn(8)
		for j := 0; j < n; j++ {
			r := []rune(letters)
			b.WriteRune(r[rng.Intn(len(r))])
		}
	}
	return b.String()
}

func TestChunker_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, cfg := range []struct{ size, overlap int }{{40, 10}, {25, 0}, {60, 15}, {12, 3}} {
		c := mustChunker(t, cfg.size, cfg.overlap)
		for trial := 0; trial < 50; trial++ {
			text := randomText(rng, 5+rng.Intn(80))
			chunks := c.SplitText(text)
			require.NotEmpty(t, chunks)

			for i, ch := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(ch), cfg.size, "chunk %d too long", i)
				if i == 0 {
					continue
				}
				prev := []rune(chunks[i-1])
				cur := []rune(ch)
				require.Greater(t, len(cur), cfg.overlap)
				assert.Equal(t, string(prev[len(prev)-cfg.overlap:]), string(cur[:cfg.overlap]),
					"chunks %d and %d must share exactly the overlap", i-1, i)
			}

			if cfg.overlap > 0 {
				// Dropping each overlap reassembles the preprocessed text.
				var b strings.Builder
				b.WriteString(chunks[0])
				for _, ch := range chunks[1:] {
					b.WriteString(string([]rune(ch)[cfg.overlap:]))
				}
				assert.Equal(t, Preprocess(text), b.String())
			}
		}
	}
}

func TestChunker_SplitPreservesProvenance(t *testing.T) {
	c := mustChunker(t, 12, 3)
	records := []models.DocumentRecord{
		{Text: "alpha beta gamma delta epsilon", Source: "a.pdf", Page: 1},
		{Text: "zeta eta theta iota", Source: "a.pdf", Page: 2},
		{Text: "kappa lambda", Source: "b.txt"},
		{Text: "   ", Source: "c.txt"},
	}
	chunks := c.Split(records)
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	lastKey := ""
	ordinal := 0
	for _, ch := range chunks {
		key := ch.Source + "#" + ch.PageLabel()
		if key != lastKey {
			ordinal = 0
			lastKey = key
		}
		assert.Equal(t, ordinal, ch.Ordinal)
		ordinal++
		assert.NotEqual(t, "c.txt", ch.Source, "blank records produce no chunks")
		assert.False(t, seen[ch.ID], "duplicate chunk id %s", ch.ID)
		seen[ch.ID] = true

		switch {
		case ch.Source == "a.pdf" && ch.Page == 1:
			assert.Contains(t, "alpha beta gamma delta epsilon", ch.Text)
		case ch.Source == "a.pdf" && ch.Page == 2:
			assert.Contains(t, "zeta eta theta iota", ch.Text)
		case ch.Source == "b.txt":
			assert.Equal(t, models.UnknownPage, ch.Page)
			assert.Equal(t, "kappa lambda", ch.Text)
		default:
			t.Fatalf("unexpected chunk %+v", ch)
		}
	}

	again := c.Split(records)
	assert.Equal(t, chunks, again, "chunking is deterministic")
}

func TestChunker_SameTextInDifferentFilesGetsDistinctIDs(t *testing.T) {
	c := mustChunker(t, 100, 10)
	chunks := c.Split([]models.DocumentRecord{
		{Text: "Net profit grew 18.4%.", Source: "fy24/report.txt", Path: "/corpus/fy24/report.txt"},
		{Text: "Net profit grew 18.4%.", Source: "fy25/report.txt", Path: "/corpus/fy25/report.txt"},
	})
	require.Len(t, chunks, 2)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
	assert.Equal(t, "fy24/report.txt", chunks[0].Source)
	assert.Equal(t, "fy25/report.txt", chunks[1].Source)
}

func TestPreprocess(t *testing.T) {
	assert.Equal(t, "a b c", Preprocess("  a \n\t b  c  "))
	assert.Equal(t, "", Preprocess(" \n "))
	assert.Equal(t, "18.4% growth", Preprocess("18.4%\u00a0\u2003growth"))
}
