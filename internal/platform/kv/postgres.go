package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TableName is the table the PostgreSQL backend reads and writes. It is
// created by migrations/001_kv_store.sql.
const TableName = "kv_store"

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGStore is a Store backed by a single PostgreSQL table with a TEXT key
// and a JSONB value.
type PGStore struct {
	db queryable
}

// NewPGStore creates a PostgreSQL backed store using the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool}
}

func (s *PGStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value::text FROM `+TableName+` WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (s *PGStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+TableName+` (key, value) VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) Del(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM `+TableName+` WHERE key = $1`, key); err != nil {
		return fmt.Errorf("kv del %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT key, value::text FROM `+TableName+`
		WHERE key LIKE $1 ESCAPE '\'
		ORDER BY key`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
		}
		entries = append(entries, Entry{Key: key, Value: json.RawMessage(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so the prefix is matched literally.
// Collection prefixes such as "medical_record:" contain an underscore.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
