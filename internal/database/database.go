// Package database opens the relational store and applies its schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hadis11/study.bot/pkg/config"
)

// Dialect names a supported SQL driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// DB wraps a connection pool together with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the store described by cfg. SQLite databases are created on
// demand with WAL journaling, a busy timeout and foreign keys enabled.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	dialect := Dialect(cfg.Driver)

	switch dialect {
	case SQLite:
		return openSQLite(cfg.DSN)
	case Postgres:
		pool, err := sql.Open(string(Postgres), cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			pool.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		return &DB{DB: pool, Dialect: Postgres}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	pool, err := sql.Open(string(SQLite), makeDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	pool.SetMaxOpenConns(1)

	return &DB{DB: pool, Dialect: SQLite}, nil
}

// makeDSN builds a SQLite connection string with the shared pragmas.
func makeDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	params.Set("_synchronous", "NORMAL")
	return path + "?" + params.Encode()
}

// Rebind rewrites ? placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Update runs fn inside a transaction, committing on success.
func (db *DB) Update(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// no-op after a successful commit
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
