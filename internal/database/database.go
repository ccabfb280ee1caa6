// Package database manages the postgres connection pool and schema migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Options configures the SQL database connection.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Logger          *slog.Logger
	PingTimeout     time.Duration
}

const defaultPingTimeout = 5 * time.Second

// DB is a pooled connection whose pings are bounded by the configured timeout.
type DB struct {
	*sql.DB
	logger      *slog.Logger
	pingTimeout time.Duration
}

// Connect opens the pool, applies the pool limits and verifies connectivity.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	if opts.Driver == "" {
		return nil, errors.New("database driver is required")
	}
	if opts.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	pool, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}
	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	db := wrap(pool, opts.Logger, opts.PingTimeout)
	if err := db.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}

	db.logger.Info("database connected", "driver", opts.Driver, "max_open_conns", opts.MaxOpenConns)
	return db, nil
}

func wrap(pool *sql.DB, logger *slog.Logger, pingTimeout time.Duration) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	return &DB{DB: pool, logger: logger, pingTimeout: pingTimeout}
}

// PingContext checks connectivity, giving up after the ping timeout.
func (db *DB) PingContext(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.pingTimeout)
	defer cancel()
	return db.DB.PingContext(ctx)
}

// Close releases the pool.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	stats := db.Stats()
	db.logger.Debug("closing database", "open_connections", stats.OpenConnections, "wait_count", stats.WaitCount)
	return db.DB.Close()
}

// RunMigrations applies schema migrations through migrator. A nil migrator is skipped.
func (db *DB) RunMigrations(ctx context.Context, migrator Migrator) error {
	if migrator == nil {
		db.logger.Info("no migrator configured; skipping migrations")
		return nil
	}

	db.logger.Info("running migrations")
	if err := migrator.Up(ctx); err != nil {
		return err
	}
	db.logger.Info("migrations completed")
	return nil
}
