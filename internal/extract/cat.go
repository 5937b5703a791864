package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractWithCat reads .odt and .rtf documents as a single page.
func extractWithCat(path string) ([]page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	return wholeDocument(text), nil
}
