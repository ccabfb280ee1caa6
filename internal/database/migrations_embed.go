package database

import (
	"embed"
	"io/fs"
)

// MigrationsDir is the directory inside MigrationsFS holding *.up.sql files.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsFS returns the compiled-in schema migrations.
func MigrationsFS() fs.FS {
	return migrations
}
