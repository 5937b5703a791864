package indexer

import "strings"

// Preprocess trims text and collapses every whitespace run to a single space.
func Preprocess(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
