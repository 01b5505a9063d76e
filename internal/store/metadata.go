package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// State keys in the metadata database.
const (
	StateKeyDirectory = "indexed_directory"
	StateKeyModel     = "embedding_model"
	StateKeyDimension = "embedding_dimension"
	// StateKeyBuiltAt pairs the database with its vector artifact.
	StateKeyBuiltAt = "built_at"
)

const metadataSchema = `
CREATE TABLE IF NOT EXISTS documents (
	path         TEXT PRIMARY KEY,
	file_name    TEXT NOT NULL,
	file_size    INTEGER NOT NULL,
	extension    TEXT NOT NULL,
	total_chunks INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// MetadataStore persists per-document metadata in SQLite, keyed by
// absolute file path.
type MetadataStore struct {
	db   *sql.DB
	path string
}

// OpenMetadata opens (creating if needed) the metadata database at path.
// An empty path opens an in-memory database for testing.
func OpenMetadata(path string) (*MetadataStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path
	}

	// IMPORTANT: Use modernc.org/sqlite driver (pure Go, no CGO)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",  // 5 second timeout for lock contention
		"PRAGMA synchronous = NORMAL", // Balance durability and performance
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(metadataSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &MetadataStore{db: db, path: path}, nil
}

// ReplaceAll rewrites every document and state entry in one transaction.
func (m *MetadataStore) ReplaceAll(ctx context.Context, docs []Document, state map[string]string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM state"); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}

	insertDoc, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (path, file_name, file_size, extension, total_chunks) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertDoc.Close()

	for _, d := range docs {
		if _, err := insertDoc.ExecContext(ctx, d.Path, d.Name, d.SizeBytes, d.Extension, d.TotalChunks); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.Path, err)
		}
	}

	for k, v := range state {
		if _, err := tx.ExecContext(ctx, `INSERT INTO state (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to insert state %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Documents returns all stored documents ordered by path.
func (m *MetadataStore) Documents(ctx context.Context) ([]Document, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT path, file_name, file_size, extension, total_chunks FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Path, &d.Name, &d.SizeBytes, &d.Extension, &d.TotalChunks); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Document returns one document by absolute path.
func (m *MetadataStore) Document(ctx context.Context, path string) (Document, bool, error) {
	var d Document
	err := m.db.QueryRowContext(ctx,
		`SELECT path, file_name, file_size, extension, total_chunks FROM documents WHERE path = ?`, path).
		Scan(&d.Path, &d.Name, &d.SizeBytes, &d.Extension, &d.TotalChunks)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("failed to query document: %w", err)
	}
	return d, true, nil
}

// State returns a state value, or "" when unset.
func (m *MetadataStore) State(ctx context.Context, key string) (string, error) {
	var v string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query state: %w", err)
	}
	return v, nil
}

// Close closes the database.
func (m *MetadataStore) Close() error {
	return m.db.Close()
}
