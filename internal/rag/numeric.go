package rag

import (
	"regexp"
	"strings"
)

// numericPattern matches percentages ("12.5%") and currency amounts ("₹1,200", "$ 3.50").
var numericPattern = regexp.MustCompile(`\d+(?:\.\d+)?%|\p{Sc}\s?\d+(?:,\d+)*(?:\.\d+)?`)

// numberPattern matches any bare number, for the grounding check.
var numberPattern = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d+)?`)

// ExtractNumbers returns every percentage and currency amount in text, verbatim
// and in order of appearance. Duplicates are kept.
func ExtractNumbers(text string) []string {
	return numericPattern.FindAllString(text, -1)
}

// UnsupportedNumbers returns the distinct numbers stated in answer that do not
// occur anywhere in context.
func UnsupportedNumbers(answer, context string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range numberPattern.FindAllString(answer, -1) {
		if seen[n] {
			continue
		}
		seen[n] = true
		if !strings.Contains(context, n) {
			out = append(out, n)
		}
	}
	return out
}
