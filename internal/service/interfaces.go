package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SyncEngine pulls delta batches from the server and applies them to the
// local cache. One pass is atomic from the cache's point of view: either
// the whole batch and the cursor advance commit, or nothing does.
type SyncEngine interface {
	// Sync runs one full pass: fetch deltas since the local cursor, apply
	// key grants, decrypt and validate upserts, persist everything with the
	// cursor advance in a single transaction. Per-object decrypt failures
	// do not abort the pass; they are collected in the result and the
	// ciphertext is kept in the cache.
	//
	// When the server reports the cursor as stale, the cache is discarded
	// and the pass restarts from revision zero; the result's FullResync
	// flag is set.
	//
	// Concurrent calls are serialised: a second caller blocks until the
	// running pass finishes.
	Sync(ctx context.Context) (models.SyncResult, error)

	// State reports the engine's current phase for observability.
	State() SyncState
}

// VaultService is the decrypted view over the local cache. It resolves keys
// and opens envelopes on demand; plaintext never touches disk.
type VaultService interface {
	// GetRecord loads one record from the cache and decrypts it.
	// Returns store.ErrObjectNotFound for an unknown UID and a
	// *models.UndecryptableError when no held key opens the payload.
	GetRecord(ctx context.Context, uid string) (models.DecryptedRecord, error)

	// ListRecords decrypts every cached record. Records that cannot be
	// decrypted with the keys at hand are skipped and logged; they stay in
	// the cache untouched.
	ListRecords(ctx context.Context) ([]models.DecryptedRecord, error)

	// ListFolderRecords decrypts the records living directly in the given
	// folder; an empty UID selects the vault root. Undecryptable records
	// are skipped the same way ListRecords skips them.
	ListFolderRecords(ctx context.Context, folderUID string) ([]models.DecryptedRecord, error)

	// ListFolders returns the decrypted folder tree, plain and shared.
	// A parent cycle in the cached tree is a *models.ConsistencyFault.
	ListFolders(ctx context.Context) ([]models.Folder, error)

	// FolderPath renders the "/"-joined path of decrypted folder names from
	// the root down to the given folder.
	FolderPath(ctx context.Context, uid string) (string, error)

	// SaveRecord encrypts plain under a fresh record key, wraps the record
	// key for the target folder's context, stores the ciphertext in the
	// cache, and marks the record dirty for the next push. A missing UID is
	// filled with a generated one; the UID used is returned.
	SaveRecord(ctx context.Context, plain models.DecryptedRecord) (string, error)

	// DeleteRecord removes a record from the local cache and marks the
	// deletion dirty for the next push.
	DeleteRecord(ctx context.Context, uid string) error

	// PushLocalChanges uploads every dirty record and pending local
	// deletion to the server, applies the acknowledged revisions to the
	// cache, and clears the dirty set.
	PushLocalChanges(ctx context.Context) (models.PushResult, error)
}

// SyncJob is a background worker that runs sync passes on a ticker.
type SyncJob interface {
	// Start launches the background goroutine. It syncs every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any
	// previously running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it
	// has fully terminated.
	Stop()
}
