package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MKhiriev/go-vault-sync/internal/config"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
)

// Storages groups the client-side storage repositories into a single value
// that can be passed around the service layer. Currently it holds only the
// encrypted-object cache; additional repositories can be added here as the
// feature set grows.
type Storages struct {
	// Cache is the SQLite-backed repository of encrypted vault objects and
	// sync metadata.
	Cache CacheRepository
}

// NewStorages initialises the local storage layer:
//  1. Opens an SQLite connection to the file path in cfg.DB.DSN, creating
//     the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. If the on-disk schema was written by a newer client
//     (ErrSchemaUnsupported), the cache file is discarded and recreated
//     empty — the next sync is then a full resync from revision zero.
//
// Returns an error if the database connection cannot be established or if
// migration fails for any other reason.
func NewStorages(cfg config.Storage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("opening local vault cache...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		if !errors.Is(err, ErrSchemaUnsupported) || cfg.DB.DSN == "" || cfg.DB.DSN == ":memory:" {
			return nil, fmt.Errorf("migration failed: %w", err)
		}

		log.Warn().
			Str("dsn", cfg.DB.DSN).
			Msg("cache schema written by a newer client; discarding cache, next sync will refetch everything")

		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("close unsupported cache: %w", closeErr)
		}
		if rmErr := os.Remove(cfg.DB.DSN); rmErr != nil {
			return nil, fmt.Errorf("discard unsupported cache: %w", rmErr)
		}

		db, err = NewConnectSQLite(context.Background(), cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("sqlite reconnection error: %w", err)
		}
		if err = db.Migrate(); err != nil {
			return nil, fmt.Errorf("migration failed after cache discard: %w", err)
		}
	}

	return &Storages{
		Cache: NewCacheRepository(db, log),
	}, nil
}
