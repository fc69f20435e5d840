package store

import (
	"context"

	"github.com/MKhiriev/go-vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/cache_repository_mock.go -package=mock

// CacheRepository is the durable local cache of encrypted vault objects and
// sync metadata. It owns persisted ciphertext and the sync cursor
// exclusively, and it never sees plaintext.
//
// All writes are atomic per object; ApplyBatch and Reset are atomic as a
// whole (a crash mid-call leaves either the previous or the new state,
// never a partial one). Readers may run concurrently with a writer and
// observe a consistent snapshot.
type CacheRepository interface {
	// Get returns the cached object with the given UID, or ErrObjectNotFound.
	Get(ctx context.Context, uid string) (models.CachedObject, error)

	// GetAll returns every cached object of the given kinds, or of all
	// kinds when none are specified.
	GetAll(ctx context.Context, kinds ...models.ObjectKind) ([]models.CachedObject, error)

	// Put inserts or replaces a single cached object.
	Put(ctx context.Context, obj models.CachedObject) error

	// Delete removes the object with the given UID. Deleting an absent UID
	// is not an error.
	Delete(ctx context.Context, uid string) error

	// Cursor returns the last server revision fully applied to the cache.
	Cursor(ctx context.Context) (int64, error)

	// AdvanceCursor moves the cursor forward to revision. Moving it
	// backwards yields ErrCursorRegression.
	AdvanceCursor(ctx context.Context, revision int64) error

	// ApplyBatch persists a whole delta batch in one transaction: all
	// upserts, all deletions, and the cursor advance commit together or
	// not at all.
	ApplyBatch(ctx context.Context, puts []models.CachedObject, deletions []string, revision int64) error

	// MarkDirty records a local-only edit pending upload.
	MarkDirty(ctx context.Context, uid string) error

	// DirtyUIDs lists all objects pending upload.
	DirtyUIDs(ctx context.Context) ([]string, error)

	// ClearDirty removes the given UIDs from the dirty set after a
	// successful push.
	ClearDirty(ctx context.Context, uids ...string) error

	// Reset wipes all objects, the dirty set, and the cursor (back to zero)
	// in one transaction. Used for a full resync.
	Reset(ctx context.Context) error
}
