// Package kv is the key-value store every collection is persisted in.
// Records are JSON values addressed by string keys of the form
// "<collection>:<id>"; collections are read back with prefix scans.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Entry is a single key/value pair returned by a prefix scan.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Store is the persistence substrate. Implementations give no transactional
// guarantees: a read followed by a write is not isolated from other writers.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error
	// GetByPrefix returns every entry whose key starts with prefix, ordered by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}

// GetJSON loads key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// Exists reports whether key holds a value.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
