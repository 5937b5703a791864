// Package cli provides output helpers for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: text, json)", s)
	}
}

// WriteAnswer writes an answer to w in the given format.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	fmt.Fprintln(w, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for i, src := range answer.Sources {
			fmt.Fprintf(w, "  %d. %s (page %s) score %.4f\n", i+1, src.Source, pageLabel(src.Page), src.Score)
		}
	}
	return nil
}

// WritePassages writes keyword lookup results to w in the given format.
func WritePassages(w io.Writer, resp *models.PassageResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d passages for %q\n\n", resp.Total, resp.Query)
	for i, p := range resp.Passages {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. %s (page %s) | Score: %.4f\n", i+1, p.Chunk.Source, p.Chunk.PageLabel(), p.Score)
		fmt.Fprintf(w, "\n%s\n\n", Truncate(p.Chunk.Text, 200))
	}
	return nil
}

// IndexReport summarises an index build.
type IndexReport struct {
	Documents  []models.Document `json:"documents"`
	Chunks     int               `json:"chunks"`
	Dimensions int               `json:"dimensions"`
	CacheHits  int64             `json:"cache_hits"`
	Duration   time.Duration     `json:"duration_ns"`
}

// WriteIndexReport writes build statistics to w in the given format.
func WriteIndexReport(w io.Writer, report *IndexReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Indexed %d documents into %d chunks (%d dimensions) in %s\n",
		len(report.Documents), report.Chunks, report.Dimensions, report.Duration.Round(time.Millisecond))
	if report.CacheHits > 0 {
		fmt.Fprintf(w, "Reused %d cached embeddings\n", report.CacheHits)
	}
	for _, d := range report.Documents {
		fmt.Fprintf(w, "  %-40s %4d pages %5d chunks\n", TruncateRunes(d.Source, 40), d.Pages, d.Chunks)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pageLabel(page int) string {
	return models.Chunk{Page: page}.PageLabel()
}

// Truncate shortens s to maxLen characters and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	return utils.Truncate(s, maxLen)
}

// TruncateRunes shortens s to maxLen characters, marking the cut with an ellipsis.
func TruncateRunes(s string, maxLen int) string {
	if maxLen <= 1 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-1]) + "…"
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
