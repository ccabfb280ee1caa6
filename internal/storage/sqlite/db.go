// Package sqlite provides gorm-backed repositories on an embedded SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the SQLite database at dsn and migrates the CRM schema.
// An empty dsn opens a private in-memory database.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	pool, err := sql.Open(sqlite.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		// Every pooled connection to :memory: would see its own empty database.
		pool.SetMaxOpenConns(1)
	}
	return openPool(pool)
}

// openPool wraps pool in gorm and migrates the schema. pool is closed when
// either step fails.
func openPool(pool *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{Conn: pool}, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	if err := db.AutoMigrate(&customerModel{}, &productModel{}, &orderModel{}, &orderItemModel{}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate SQLite schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
