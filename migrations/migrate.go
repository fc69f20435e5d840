// Package migrations embeds the SQL schema of the local vault cache and
// applies it with goose. The goose version table doubles as the cache's
// on-disk schema-version tag: a cache file written by a newer client shows
// a version above Latest and must not be migrated down.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Latest is the newest schema version this client understands. Bump it
// whenever a migration file is added.
const Latest int64 = 1

// Migrate brings the cache schema up to Latest.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// Version reports the schema version currently recorded in the database.
func Version(db *sql.DB) (int64, error) {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("migration error reading db version: %w", err)
	}
	return v, nil
}
