package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
)

// maxValueBytes bounds a single persisted value. Mirrors the quota a browser
// key-value store would impose; anything near this size is a bug upstream.
const maxValueBytes = 5 << 20

// KVStore persists JSON-encoded application state one value per key.
// It is the leaf persistence adapter: callers own serialization shape,
// the adapter owns encoding, quota checks and failure isolation.
type KVStore struct {
	db *sql.DB
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Get decodes the value stored under key into dest. The second return is
// false when the key has never been written.
func (s *KVStore) Get(key string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &model.PersistenceError{Key: key, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, &model.PersistenceError{Key: key, Err: fmt.Errorf("decode: %w", err)}
	}
	return true, nil
}

// Set JSON-encodes value and upserts it under key.
func (s *KVStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &model.PersistenceError{Key: key, Err: fmt.Errorf("encode: %w", err)}
	}
	if len(raw) > maxValueBytes {
		return &model.PersistenceError{Key: key, Err: fmt.Errorf("value of %d bytes exceeds quota", len(raw))}
	}
	_, err = s.db.Exec(
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return &model.PersistenceError{Key: key, Err: err}
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *KVStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM app_state WHERE key = ?`, key); err != nil {
		return &model.PersistenceError{Key: key, Err: err}
	}
	return nil
}

// CheckSpace reports whether value would fit under the per-key quota without
// writing anything.
func (s *KVStore) CheckSpace(value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &model.PersistenceError{Key: "", Err: fmt.Errorf("encode: %w", err)}
	}
	if len(raw) > maxValueBytes {
		return &model.PersistenceError{Key: "", Err: fmt.Errorf("value of %d bytes exceeds quota", len(raw))}
	}
	return nil
}
