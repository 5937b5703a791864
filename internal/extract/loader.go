// Package extract loads documents from disk into page-level text records.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
)

// SupportedExtensions lists the file extensions the loader understands.
var SupportedExtensions = []string{
	".pdf", ".xlsx", ".docx", ".pptx", ".odt", ".rtf", ".odp", ".ods", ".txt", ".md", ".rst",
}

// IsSupported reports whether path has a loadable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Loader turns files into DocumentRecords.
type Loader struct {
	logger *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger for per-file debug output.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader returns a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll loads every path in order and concatenates the records. The first
// failure aborts the whole load. A file reached through two configured paths is
// loaded once; two different files that resolve to the same source name are an
// ingestion error, since their citations could not be told apart.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]models.DocumentRecord, error) {
	var records []models.DocumentRecord
	owners := make(map[string]string)
	for _, p := range paths {
		recs, err := l.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		current := make(map[string]bool)
		for _, rec := range recs {
			owner, ok := owners[rec.Source]
			switch {
			case !ok:
				owners[rec.Source] = rec.Path
				current[rec.Source] = true
			case !samePath(owner, rec.Path):
				return nil, fmt.Errorf("%w: %s and %s are both named %q", models.ErrIngestion, owner, rec.Path, rec.Source)
			case !current[rec.Source]:
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Load reads path, which may be a file or a directory. Directories are walked
// recursively in lexical order and unsupported files inside them are skipped;
// an unsupported file named directly is read as plain text. A file named
// directly is sourced by its base name, a file found in a directory by its
// slash-separated path relative to that directory. Errors wrap
// models.ErrIngestion.
func (l *Loader) Load(ctx context.Context, path string) ([]models.DocumentRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found: %s", models.ErrIngestion, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", models.ErrIngestion, path, err)
	}
	if !info.IsDir() {
		return l.loadFile(ctx, path, filepath.Base(path))
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSupported(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", models.ErrIngestion, path, err)
	}
	sort.Strings(files)

	var records []models.DocumentRecord
	for _, f := range files {
		rel, err := filepath.Rel(path, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrIngestion, f, err)
		}
		recs, err := l.loadFile(ctx, f, filepath.ToSlash(rel))
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func (l *Loader) loadFile(ctx context.Context, path, source string) ([]models.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := extractPages(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrIngestion, path, err)
	}

	records := make([]models.DocumentRecord, 0, len(pages))
	for _, pg := range pages {
		if strings.TrimSpace(pg.text) == "" {
			continue
		}
		records = append(records, models.DocumentRecord{Text: pg.text, Page: pg.number, Source: source, Path: path})
	}
	if l.logger != nil {
		l.logger.Debug("loaded document", zap.String("path", path), zap.Int("records", len(records)))
		if len(records) == 0 {
			l.logger.Warn("document has no extractable text", zap.String("path", path))
		}
	}
	return records, nil
}

// page is extracted text for one page, slide or sheet. number is 1-based, or
// models.UnknownPage for formats without pages.
type page struct {
	number int
	text   string
}

func wholeDocument(text string) []page {
	return []page{{number: models.UnknownPage, text: text}}
}

func extractPages(path string) ([]page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".odt" || ext == ".rtf" {
		return extractWithCat(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return extractBytes(content, ext)
}

// extractBytes dispatches on ext, which includes the leading dot.
func extractBytes(content []byte, ext string) ([]page, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".xlsx":
		return extractExcel(content)
	case ".docx":
		return extractDOCX(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odp":
		return extractODP(content)
	case ".ods":
		return extractODS(content)
	default:
		return wholeDocument(decodePlain(content)), nil
	}
}
