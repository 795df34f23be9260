// Package kv is a small string-keyed persistent store backed by SQLite.
// Settings and other singleton state serialize through it.
package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/driftbox/driftbox/internal/jsonutil"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);
`

// Store provides Get/Set/Delete over a kv_store table.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

// NewStore initializes the kv schema on the given database.
func NewStore(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initialize kv schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value for key. The second return is false when the key is
// absent.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("set key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

// GetJSON unmarshals the stored value into v. Returns false when the key is
// absent, leaving v untouched.
func (s *Store) GetJSON(key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := jsonutil.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode key %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func (s *Store) SetJSON(key string, v any) error {
	raw, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode key %s: %w", key, err)
	}
	return s.Set(key, string(raw))
}
