// Package local keeps editor state in a single-table SQLite key-value store
// on the user's machine.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cvforge/internal/errors"

	_ "modernc.org/sqlite"
)

// Fixed keys of the persisted editor state.
const (
	KeyEditorState  = "cv-editor-state"
	KeySectionOrder = "cv-section-order"
	KeySession      = "cv-session"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// Store is a JSON key-value store backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *errors.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger *errors.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to create storage directory", err).
				WithContext("path", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to open local storage", err).
			WithContext("path", path)
	}
	// SQLite serializes writers; one connection keeps :memory: databases coherent too
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to initialize local storage", err).
			WithContext("path", path)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Load decodes the value under key into v. It returns false when nothing
// usable is saved: the key is missing or its value does not parse.
func (s *Store) Load(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to read local storage", err).
			WithContext("key", key)
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("Discarding unreadable saved data", "key", key, "error", err.Error())
		return false, nil
	}
	return true, nil
}

// Save encodes v as JSON and writes it under key immediately.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStorageFailed, fmt.Sprintf("failed to encode %s", key), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC())
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStorageFailed, "failed to write local storage", err).
			WithContext("key", key)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.NewIOError(errors.ErrCodeStorageFailed, "failed to delete from local storage", err).
			WithContext("key", key)
	}
	return nil
}

// Keys lists the saved keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to list local storage", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to list local storage", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
