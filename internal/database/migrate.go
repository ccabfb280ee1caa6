package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

const migrationSuffix = ".up.sql"

const (
	createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectVersions = `SELECT version FROM schema_migrations`
	insertVersion  = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

// Migrator applies schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
}

// SQLMigrator runs *.up.sql files from FS/Path in lexical order. Each file is
// applied in its own transaction and recorded in schema_migrations, so a file
// runs at most once per database.
type SQLMigrator struct {
	Logger *slog.Logger
	DB     *sql.DB
	FS     fs.FS
	Path   string
}

// NewSQLMigrator builds a migrator over the files in dir.
func NewSQLMigrator(db *sql.DB, f fs.FS, dir string, logger *slog.Logger) *SQLMigrator {
	return &SQLMigrator{DB: db, FS: f, Path: dir, Logger: logger}
}

// Up applies every pending migration.
func (m *SQLMigrator) Up(ctx context.Context) error {
	switch {
	case m == nil:
		return errors.New("sql migrator is nil")
	case m.DB == nil:
		return errors.New("sql migrator requires a database handle")
	case m.FS == nil:
		return errors.New("sql migrator requires a filesystem")
	case m.Path == "":
		return errors.New("sql migrator requires a path")
	}

	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := m.pending()
	if err != nil {
		return err
	}

	if _, err := m.DB.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	done, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	applied := 0
	for _, name := range files {
		version := strings.TrimSuffix(name, migrationSuffix)
		if done[version] {
			continue
		}

		contents, err := fs.ReadFile(m.FS, path.Join(m.Path, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		statements := splitSQLStatements(string(contents))
		if len(statements) == 0 {
			logger.Info("skipping empty migration", "file", name)
			continue
		}

		if err := m.apply(ctx, version, statements); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		applied++
		logger.Info("migration applied", "version", version)
	}

	if applied == 0 {
		logger.Info("schema up to date")
	}
	return nil
}

func (m *SQLMigrator) pending() ([]string, error) {
	entries, err := fs.ReadDir(m.FS, m.Path)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), migrationSuffix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *SQLMigrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.DB.QueryContext(ctx, selectVersions)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (m *SQLMigrator) apply(ctx context.Context, version string, statements []string) (err error) {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if _, err = tx.ExecContext(ctx, insertVersion, version); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}

func splitSQLStatements(sqlText string) []string {
	var out []string
	for _, stmt := range strings.Split(sqlText, ";") {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
