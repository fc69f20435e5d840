package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-vault-sync/internal/crypto"
	"github.com/MKhiriev/go-vault-sync/internal/keychain"
	"github.com/MKhiriev/go-vault-sync/internal/store"
	"github.com/MKhiriev/go-vault-sync/models"
)

// fakeCache is an in-memory CacheRepository with the same transactional
// guarantees as the SQLite implementation: ApplyBatch is all-or-nothing and
// the cursor never moves backwards.
type fakeCache struct {
	mu      sync.Mutex
	objects map[string]models.CachedObject
	dirty   map[string]struct{}
	cursor  int64
	resets  int

	// getErr, when set, fails every Get: a cache read I/O failure.
	getErr error

	// applyErr, when set, fails the next ApplyBatch once before any write,
	// like a crash before the transaction commits.
	applyErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		objects: make(map[string]models.CachedObject),
		dirty:   make(map[string]struct{}),
	}
}

func (c *fakeCache) Get(_ context.Context, uid string) (models.CachedObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return models.CachedObject{}, c.getErr
	}
	obj, ok := c.objects[uid]
	if !ok {
		return models.CachedObject{}, store.ErrObjectNotFound
	}
	return obj, nil
}

func (c *fakeCache) GetAll(_ context.Context, kinds ...models.ObjectKind) ([]models.CachedObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.CachedObject
	for _, obj := range c.objects {
		if len(kinds) == 0 {
			out = append(out, obj)
			continue
		}
		for _, k := range kinds {
			if obj.Kind == k {
				out = append(out, obj)
				break
			}
		}
	}
	return out, nil
}

func (c *fakeCache) Put(_ context.Context, obj models.CachedObject) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[obj.UID] = obj
	return nil
}

func (c *fakeCache) Delete(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, uid)
	return nil
}

func (c *fakeCache) Cursor(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor, nil
}

func (c *fakeCache) AdvanceCursor(_ context.Context, revision int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if revision < c.cursor {
		return store.ErrCursorRegression
	}
	c.cursor = revision
	return nil
}

func (c *fakeCache) ApplyBatch(_ context.Context, puts []models.CachedObject, deletions []string, revision int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applyErr != nil {
		err := c.applyErr
		c.applyErr = nil
		return err
	}
	if revision < c.cursor {
		return store.ErrCursorRegression
	}
	for _, obj := range puts {
		c.objects[obj.UID] = obj
	}
	for _, uid := range deletions {
		delete(c.objects, uid)
	}
	c.cursor = revision
	return nil
}

func (c *fakeCache) MarkDirty(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[uid] = struct{}{}
	return nil
}

func (c *fakeCache) DirtyUIDs(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uids := make([]string, 0, len(c.dirty))
	for uid := range c.dirty {
		uids = append(uids, uid)
	}
	return uids, nil
}

func (c *fakeCache) ClearDirty(_ context.Context, uids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, uid := range uids {
		delete(c.dirty, uid)
	}
	return nil
}

func (c *fakeCache) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects = make(map[string]models.CachedObject)
	c.dirty = make(map[string]struct{})
	c.cursor = 0
	c.resets++
	return nil
}

// scriptedTransport lets each test inject fetch/push behaviour directly.
type scriptedTransport struct {
	fetch func(ctx context.Context, since int64) (models.DeltaBatch, error)
	push  func(ctx context.Context, req models.PushRequest) (models.PushResult, error)

	mu    sync.Mutex
	token string
}

func (t *scriptedTransport) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

func (t *scriptedTransport) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func (t *scriptedTransport) FetchDeltas(ctx context.Context, since int64) (models.DeltaBatch, error) {
	if t.fetch == nil {
		return models.DeltaBatch{}, nil
	}
	return t.fetch(ctx, since)
}

func (t *scriptedTransport) PushChanges(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	if t.push == nil {
		return models.PushResult{}, nil
	}
	return t.push(ctx, req)
}

// vaultFixture bundles a real crypto provider and resolver around the fakes.
type vaultFixture struct {
	provider crypto.Provider
	resolver *keychain.Resolver
	cache    *fakeCache
	dataKey  []byte
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()

	provider := crypto.NewProvider()
	dataKey, err := provider.NewKey()
	require.NoError(t, err)

	return &vaultFixture{
		provider: provider,
		resolver: keychain.NewResolver(provider, keychain.NewKeyContext(dataKey, nil)),
		cache:    newFakeCache(),
		dataKey:  dataKey,
	}
}

// wrap encrypts key under wrappingKey and tags the result.
func (f *vaultFixture) wrap(t *testing.T, key, wrappingKey []byte, typ models.KeyType, holder string) models.WrappedKey {
	t.Helper()
	blob, err := f.provider.WrapKey(key, wrappingKey)
	require.NoError(t, err)
	return models.WrappedKey{Type: typ, HolderUID: holder, Blob: blob}
}

// sealRecord builds an encrypted record ready for a delta batch.
func (f *vaultFixture) sealRecord(t *testing.T, uid string, revision int64, key models.WrappedKey, recordKey []byte, data models.RecordData, folderUID string) models.Record {
	t.Helper()
	payload := mustJSON(t, data)
	env, err := f.provider.SealEnvelope(recordKey, payload)
	require.NoError(t, err)
	return models.Record{UID: uid, Revision: revision, Key: key, Data: env.Encode(), FolderUID: folderUID}
}

// sealFolder builds an encrypted folder upsert.
func (f *vaultFixture) sealFolder(t *testing.T, uid string, revision int64, key *models.WrappedKey, folderKey []byte, name, parentUID string, shared bool) models.FolderUpsert {
	t.Helper()
	payload := mustJSON(t, models.FolderData{Name: name})
	env, err := f.provider.SealEnvelope(folderKey, payload)
	require.NoError(t, err)
	return models.FolderUpsert{
		UID:       uid,
		ParentUID: parentUID,
		Revision:  revision,
		Shared:    shared,
		Key:       key,
		Data:      env.Encode(),
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return payload
}
