package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/awase/internal/bm25"
)

// SQLiteStore implements Store on a SQLite database, one row per document id.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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

	schema := `
	CREATE TABLE IF NOT EXISTS keyword_indexes (
		document_id TEXT PRIMARY KEY,
		record BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save upserts the record for documentID.
func (s *SQLiteStore) Save(ctx context.Context, documentID string, svc *bm25.Service) error {
	if documentID == "" {
		return fmt.Errorf("storage: document id must not be empty")
	}
	data, err := encodeRecord(documentID, svc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO keyword_indexes (document_id, record)
		VALUES (?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			record = excluded.record,
			updated_at = CURRENT_TIMESTAMP`,
		documentID, data)
	if err != nil {
		return fmt.Errorf("failed to save index record: %w", err)
	}
	return nil
}

// Load reads and rebuilds the keyword index for documentID.
// Returns (nil, nil) when no row exists.
func (s *SQLiteStore) Load(ctx context.Context, documentID string) (*bm25.Service, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM keyword_indexes WHERE document_id = ?", documentID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load index record: %w", err)
	}
	return decodeRecord(data)
}

// Exists reports whether a row exists for documentID.
func (s *SQLiteStore) Exists(ctx context.Context, documentID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM keyword_indexes WHERE document_id = ?", documentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check index record: %w", err)
	}
	return true, nil
}

// Delete removes the row for documentID, reporting whether one was removed.
func (s *SQLiteStore) Delete(ctx context.Context, documentID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM keyword_indexes WHERE document_id = ?", documentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete index record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListIndexes returns all stored document ids.
func (s *SQLiteStore) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT document_id FROM keyword_indexes ORDER BY document_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list index records: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
