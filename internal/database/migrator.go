package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations
var migrationsFS embed.FS

const createVersionsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)
`

// Migrator applies the embedded .up.sql migrations for a dialect in lexical
// order, recording each applied file in schema_migrations.
type Migrator struct {
	db   *DB
	log  *slog.Logger
	fsys fs.FS
}

// NewMigrator constructs a Migrator over the embedded migrations.
func NewMigrator(db *DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}

	return &Migrator{
		db:   db,
		log:  log,
		fsys: migrationsFS,
	}
}

// Up applies every pending migration for the database dialect.
func (m *Migrator) Up(ctx context.Context) error {
	root := path.Join("migrations", migrationDir(m.db.Dialect))

	files, err := ListMigrations(m.fsys, root)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	baseLog := m.log.With(slog.String("dialect", string(m.db.Dialect)))

	if len(files) == 0 {
		baseLog.Info("no .up.sql migrations found")
		return nil
	}

	if _, err := m.db.ExecContext(ctx, createVersionsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, name := range files {
		if applied[name] {
			continue
		}
		if err := m.applyFile(ctx, baseLog, root, name); err != nil {
			return err
		}
	}

	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("select applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func (m *Migrator) applyFile(ctx context.Context, baseLog *slog.Logger, root, name string) error {
	scopedLog := baseLog.With(slog.String("file", name))
	scopedLog.Info("applying migration")

	data, err := fs.ReadFile(m.fsys, path.Join(root, name))
	if err != nil {
		return fmt.Errorf("read migration %q: %w", name, err)
	}

	statement := strings.TrimSpace(string(data))
	if len(statement) == 0 {
		scopedLog.Warn("migration is empty, skipping")
		return nil
	}

	err = m.db.Update(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, statement); execErr != nil {
			return fmt.Errorf("execute migration %q: %w", name, execErr)
		}

		record := m.db.Dialect.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`)
		if _, execErr := tx.ExecContext(ctx, record, name, time.Now().UTC()); execErr != nil {
			return fmt.Errorf("record migration %q: %w", name, execErr)
		}

		return nil
	})
	if err != nil {
		scopedLog.Error("migration failed", slog.Any("error", err))
		return err
	}

	return nil
}

func migrationDir(d Dialect) string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".up.sql")
}

// ListMigrations returns all .up.sql files under root in lexical order.
func ListMigrations(dir fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(dir, root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isUpMigration(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}
