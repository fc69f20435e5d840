// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-vault-sync/internal/config"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/migrations"
)

// DB wraps the SQLite connection backing the local vault cache.
type DB struct {
	*sql.DB
	log *logger.Logger
}

// NewConnectSQLite opens (and creates if necessary) the SQLite database at
// cfg.DSN and verifies the connection. WAL journaling keeps concurrent
// readers consistent while a sync transaction is in flight.
func NewConnectSQLite(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = "vault-cache.db"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite cache: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	return &DB{DB: db, log: log}, nil
}

// Migrate brings the cache schema up to date. A schema written by a newer
// client (version above migrations.Latest) is not touched: the caller gets
// ErrSchemaUnsupported and should discard the cache and resync from zero.
func (db *DB) Migrate() error {
	v, err := migrations.Version(db.DB)
	if err == nil && v > migrations.Latest {
		return fmt.Errorf("%w: on-disk version %d, supported up to %d",
			ErrSchemaUnsupported, v, migrations.Latest)
	}

	if err := migrations.Migrate(db.DB); err != nil {
		return fmt.Errorf("migrate cache schema: %w", err)
	}

	return nil
}
