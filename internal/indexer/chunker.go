// Package indexer turns loaded documents into the immutable indices used at query time.
package indexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/hyperjump/kotae/internal/models"
)

// chunkNamespace scopes chunk IDs so the same text in another project gets a different ID.
var chunkNamespace = uuid.MustParse("6f1d3c2a-4b7e-5a90-8c1d-2e3f4a5b6c7d")

// Chunker splits records into overlapping character windows. Sizes are counted
// in Unicode code points.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. size must be positive and overlap in [0, size).
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d: %w", size, models.ErrConfiguration)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk_overlap must be in [0, %d), got %d: %w", size, overlap, models.ErrConfiguration)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks every record independently, in input order. Each chunk inherits
// the source and page of its record; ordinals restart at 0 for every record.
func (c *Chunker) Split(records []models.DocumentRecord) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(records))
	for _, rec := range records {
		for i, text := range c.SplitText(rec.Text) {
			chunks = append(chunks, models.Chunk{
				ID:      chunkID(rec.Path, rec.Source, rec.Page, i, text),
				Text:    text,
				Source:  rec.Source,
				Page:    rec.Page,
				Ordinal: i,
			})
		}
	}
	return chunks
}

// SplitText preprocesses text and cuts it into windows of at most Size()
// characters, each starting Overlap() characters before the previous one ended.
// Windows end before a space when possible. A run with no space inside the
// window is kept whole, so that chunk may exceed Size().
func (c *Chunker) SplitText(text string) []string {
	r := []rune(Preprocess(text))
	n := len(r)
	if n == 0 {
		return nil
	}

	var out []string
	start := 0
	for {
		if n-start <= c.size {
			out = append(out, string(r[start:]))
			return out
		}
		end := c.windowEnd(r, start)
		out = append(out, string(r[start:end]))
		if end >= n {
			return out
		}
		start = end - c.overlap
		if c.overlap == 0 {
			for start < n && unicode.IsSpace(r[start]) {
				start++
			}
		}
	}
}

// windowEnd picks the exclusive end of the window starting at start. It is
// always greater than start+overlap so the next window moves forward.
func (c *Chunker) windowEnd(r []rune, start int) int {
	limit := start + c.size
	for i := limit; i > start+c.overlap; i-- {
		if unicode.IsSpace(r[i]) {
			return i
		}
	}
	for i := limit + 1; i < len(r); i++ {
		if unicode.IsSpace(r[i]) {
			return i
		}
	}
	return len(r)
}

// chunkID is a UUIDv5 of the chunk's file, source, page, ordinal and text.
func chunkID(path, source string, page, ordinal int, text string) string {
	key := strings.Join([]string{path, source, strconv.Itoa(page), strconv.Itoa(ordinal), text}, "|")
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
