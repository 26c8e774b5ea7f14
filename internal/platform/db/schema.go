package db

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema reports whether name is usable as an unquoted schema name.
func ValidSchema(name string) bool {
	return len(name) <= 63 && schemaPattern.MatchString(name)
}

// EnsureSchema creates schema if it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !ValidSchema(schema) {
		return fmt.Errorf("invalid schema name: %q", schema)
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

// DropSchema removes schema and everything in it.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !ValidSchema(schema) {
		return fmt.Errorf("invalid schema name: %q", schema)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
		return fmt.Errorf("drop schema %s: %w", schema, err)
	}
	return nil
}

// searchPath is the search_path set on every pooled connection for schema.
func searchPath(schema string) string {
	if schema == "" || schema == "public" {
		return "public"
	}
	return pgx.Identifier{schema}.Sanitize() + ", public"
}
