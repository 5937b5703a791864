package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// sqliteMaxVars keeps IN (...) lists under SQLite's bound parameter limit.
const sqliteMaxVars = 500

// SQLiteStorage implements Catalog using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

var _ Catalog = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		source TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		pages INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		page INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		content TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source, page, ordinal);

	CREATE TABLE IF NOT EXISTS embeddings (
		model TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		dims INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (model, content_hash)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// ReplaceCorpus deletes the previous catalog and writes docs and chunks in one transaction.
// Cached embeddings are kept.
func (s *SQLiteStorage) ReplaceCorpus(ctx context.Context, docs []models.Document, chunks []models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return err
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (source, path, pages, chunks, indexed_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer docStmt.Close()

	now := time.Now()
	for _, d := range docs {
		at := d.IndexedAt
		if at.IsZero() {
			at = now
		}
		if _, err := docStmt.ExecContext(ctx, d.Source, d.Path, d.Pages, d.Chunks, at); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.Source, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, source, page, ordinal, content) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	for _, c := range chunks {
		if _, err := chunkStmt.ExecContext(ctx, c.ID, c.Source, c.Page, c.Ordinal, c.Text); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ListDocuments returns the catalog ordered by source name.
func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, path, pages, chunks, indexed_at FROM documents ORDER BY source`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Source, &d.Path, &d.Pages, &d.Chunks, &d.IndexedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ListChunks returns the chunks of one source in page then ordinal order.
func (s *SQLiteStorage) ListChunks(ctx context.Context, source string) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, page, ordinal, content FROM chunks WHERE source = ? ORDER BY page, ordinal`,
		source,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := []models.Chunk{}
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.Source, &c.Page, &c.Ordinal, &c.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetEmbeddings returns the cached vectors for the hashes that are present.
// Missing hashes are simply absent from the result.
func (s *SQLiteStorage) GetEmbeddings(ctx context.Context, model string, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	for start := 0; start < len(hashes); start += sqliteMaxVars {
		end := start + sqliteMaxVars
		if end > len(hashes) {
			end = len(hashes)
		}
		batch := hashes[start:end]

		args := make([]interface{}, 0, len(batch)+1)
		args = append(args, model)
		for _, h := range batch {
			args = append(args, h)
		}
		query := `SELECT content_hash, vector FROM embeddings WHERE model = ? AND content_hash IN (?` +
			strings.Repeat(", ?", len(batch)-1) + `)`

		if err := s.scanEmbeddings(ctx, query, args, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStorage) scanEmbeddings(ctx context.Context, query string, args []interface{}, out map[string][]float32) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hash string
			blob []byte
		)
		if err := rows.Scan(&hash, &blob); err != nil {
			return err
		}
		v, err := vector.DecodeVector(blob)
		if err != nil {
			return fmt.Errorf("corrupt embedding %s: %w", hash, err)
		}
		out[hash] = v
	}
	return rows.Err()
}

// PutEmbeddings stores vectors keyed by content hash, replacing existing rows.
func (s *SQLiteStorage) PutEmbeddings(ctx context.Context, model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model, content_hash, dims, vector) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for hash, v := range vectors {
		if _, err := stmt.ExecContext(ctx, model, hash, len(v), vector.EncodeVector(v)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM documents`)
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM chunks`)
}

// CountEmbeddings returns the number of cached vectors across all models.
func (s *SQLiteStorage) CountEmbeddings(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM embeddings`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
