// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-vault-sync/internal/adapter"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/internal/store"
	"github.com/MKhiriev/go-vault-sync/models"
)

func newTestVault(f *vaultFixture, transport *scriptedTransport) VaultService {
	if transport == nil {
		transport = &scriptedTransport{}
	}
	return NewVaultService(f.cache, transport, f.resolver, f.provider, logger.Nop())
}

func (f *vaultFixture) putRecord(t *testing.T, uid string, data models.RecordData, folderUID string) {
	t.Helper()

	recordKey, err := f.provider.NewKey()
	require.NoError(t, err)
	payload := mustJSON(t, data)
	env, err := f.provider.SealEnvelope(recordKey, payload)
	require.NoError(t, err)
	wrapped := f.wrap(t, recordKey, f.dataKey, models.KeyTypeDataKey, "")

	f.cache.objects[uid] = models.CachedObject{
		UID:       uid,
		Kind:      models.KindRecord,
		Revision:  1,
		Envelope:  env,
		Key:       &wrapped,
		ParentUID: folderUID,
	}
}

func (f *vaultFixture) putFolder(t *testing.T, uid, name, parentUID string) {
	t.Helper()

	payload := mustJSON(t, models.FolderData{Name: name})
	env, err := f.provider.SealEnvelope(f.dataKey, payload)
	require.NoError(t, err)

	f.cache.objects[uid] = models.CachedObject{
		UID:       uid,
		Kind:      models.KindFolder,
		Revision:  1,
		Envelope:  env,
		ParentUID: parentUID,
	}
}

func TestGetRecord_RoundTrip(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-1", models.RecordData{Title: "mail", Login: "me", Password: "s3cret"}, "")

	rec, err := newTestVault(f, nil).GetRecord(context.Background(), "rec-1")
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.UID)
	assert.Equal(t, "mail", rec.Data.Title)
	assert.Equal(t, "s3cret", rec.Data.Password)
}

func TestGetRecord_NotFound(t *testing.T) {
	f := newVaultFixture(t)
	_, err := newTestVault(f, nil).GetRecord(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrObjectNotFound)
}

func TestGetRecord_WrongKind(t *testing.T) {
	f := newVaultFixture(t)
	f.putFolder(t, "folder-1", "Work", "")

	_, err := newTestVault(f, nil).GetRecord(context.Background(), "folder-1")
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestListRecords_SkipsUndecryptable(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-ok", models.RecordData{Title: "ok"}, "")

	// A record wrapped for a folder key we do not hold.
	orphanKey, err := f.provider.NewKey()
	require.NoError(t, err)
	env, err := f.provider.SealEnvelope(orphanKey, mustJSON(t, models.RecordData{Title: "dark"}))
	require.NoError(t, err)
	wrapped := f.wrap(t, orphanKey, orphanKey, models.KeyTypeSharedFolderKey, "folder-unknown")
	f.cache.objects["rec-dark"] = models.CachedObject{
		UID: "rec-dark", Kind: models.KindRecord, Envelope: env, Key: &wrapped,
	}

	records, err := newTestVault(f, nil).ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-ok", records[0].UID)
}

func TestListFolderRecords_FiltersByFolder(t *testing.T) {
	f := newVaultFixture(t)
	f.putFolder(t, "folder-1", "Work", "")
	f.putRecord(t, "rec-in", models.RecordData{Title: "in"}, "folder-1")
	f.putRecord(t, "rec-root", models.RecordData{Title: "root"}, "")

	svc := newTestVault(f, nil)

	inFolder, err := svc.ListFolderRecords(context.Background(), "folder-1")
	require.NoError(t, err)
	require.Len(t, inFolder, 1)
	assert.Equal(t, "rec-in", inFolder[0].UID)

	atRoot, err := svc.ListFolderRecords(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, atRoot, 1)
	assert.Equal(t, "rec-root", atRoot[0].UID)
}

func TestListFolders_DecryptsTree(t *testing.T) {
	f := newVaultFixture(t)
	f.putFolder(t, "root", "Work", "")
	f.putFolder(t, "child", "Servers", "root")

	folders, err := newTestVault(f, nil).ListFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 2)

	byUID := make(map[string]models.Folder, len(folders))
	for _, fl := range folders {
		byUID[fl.UID] = fl
	}
	assert.Equal(t, "Work", byUID["root"].Name)
	assert.Equal(t, "root", byUID["child"].ParentUID)
}

func TestListFolders_CycleIsConsistencyFault(t *testing.T) {
	f := newVaultFixture(t)
	f.putFolder(t, "a", "A", "b")
	f.putFolder(t, "b", "B", "a")

	_, err := newTestVault(f, nil).ListFolders(context.Background())

	var fault *models.ConsistencyFault
	require.ErrorAs(t, err, &fault)
}

func TestFolderPath_RootToLeaf(t *testing.T) {
	f := newVaultFixture(t)
	f.putFolder(t, "root", "Work", "")
	f.putFolder(t, "mid", "Infra", "root")
	f.putFolder(t, "leaf", "Servers", "mid")

	path, err := newTestVault(f, nil).FolderPath(context.Background(), "leaf")
	require.NoError(t, err)
	assert.Equal(t, "Work/Infra/Servers", path)
}

func TestFolderPath_CycleIsConsistencyFault(t *testing.T) {
	f := newVaultFixture(t)
	f.putFolder(t, "a", "A", "b")
	f.putFolder(t, "b", "B", "a")

	_, err := newTestVault(f, nil).FolderPath(context.Background(), "a")

	var fault *models.ConsistencyFault
	require.ErrorAs(t, err, &fault)
}

func TestSaveRecord_EncryptsAndMarksDirty(t *testing.T) {
	f := newVaultFixture(t)
	svc := newTestVault(f, nil)

	uid, err := svc.SaveRecord(context.Background(), models.DecryptedRecord{
		Data: models.RecordData{Title: "new login", Password: "pw"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	// Dirty for the next push.
	dirty, err := f.cache.DirtyUIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{uid}, dirty)

	// And decryptable again through the normal read path.
	rec, err := svc.GetRecord(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "new login", rec.Data.Title)

	// Stored object carries a wrapped key, not plaintext.
	obj := f.cache.objects[uid]
	require.NotNil(t, obj.Key)
	assert.Equal(t, models.KeyTypeDataKey, obj.Key.Type)
}

func TestSaveRecord_EmptyTitle(t *testing.T) {
	f := newVaultFixture(t)
	_, err := newTestVault(f, nil).SaveRecord(context.Background(), models.DecryptedRecord{})
	require.ErrorIs(t, err, ErrEmptyTitle)
}

func TestSaveRecord_SharedFolderWrapsUnderFolderKey(t *testing.T) {
	f := newVaultFixture(t)

	folderKey, err := f.provider.NewKey()
	require.NoError(t, err)
	require.NoError(t, f.resolver.ApplyGrant(models.KeyGrant{
		TargetUID:  "folder-shared",
		TargetKind: models.KindSharedFolder,
		Key:        f.wrap(t, folderKey, f.dataKey, models.KeyTypeDataKey, ""),
	}))
	f.cache.objects["folder-shared"] = models.CachedObject{
		UID: "folder-shared", Kind: models.KindSharedFolder,
	}

	svc := newTestVault(f, nil)
	uid, err := svc.SaveRecord(context.Background(), models.DecryptedRecord{
		FolderUID: "folder-shared",
		Data:      models.RecordData{Title: "team secret"},
	})
	require.NoError(t, err)

	obj := f.cache.objects[uid]
	require.NotNil(t, obj.Key)
	assert.Equal(t, models.KeyTypeSharedFolderKey, obj.Key.Type)
	assert.Equal(t, "folder-shared", obj.Key.HolderUID)

	// Still readable: the resolver holds the folder key.
	rec, err := svc.GetRecord(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "team secret", rec.Data.Title)
}

func TestDeleteRecord_RemovesAndMarksDirty(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-1", models.RecordData{Title: "bye"}, "")

	require.NoError(t, newTestVault(f, nil).DeleteRecord(context.Background(), "rec-1"))

	_, err := f.cache.Get(context.Background(), "rec-1")
	require.ErrorIs(t, err, store.ErrObjectNotFound)

	dirty, err := f.cache.DirtyUIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1"}, dirty)
}

func TestPushLocalChanges_UploadsAndStampsRevisions(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-1", models.RecordData{Title: "edited"}, "")
	require.NoError(t, f.cache.MarkDirty(context.Background(), "rec-1"))

	var got models.PushRequest
	tr := &scriptedTransport{push: func(_ context.Context, req models.PushRequest) (models.PushResult, error) {
		got = req
		return models.PushResult{Revision: 30, Revisions: map[string]int64{"rec-1": 30}}, nil
	}}

	result, err := newTestVault(f, tr).PushLocalChanges(context.Background())
	require.NoError(t, err)

	require.Len(t, got.Records, 1)
	assert.Equal(t, "rec-1", got.Records[0].UID)
	assert.Equal(t, int64(30), result.Revision)

	// Revision stamped, dirty set cleared.
	obj := f.cache.objects["rec-1"]
	assert.Equal(t, int64(30), obj.Revision)
	dirty, err := f.cache.DirtyUIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestPushLocalChanges_NothingDirty(t *testing.T) {
	f := newVaultFixture(t)

	pushed := false
	tr := &scriptedTransport{push: func(_ context.Context, _ models.PushRequest) (models.PushResult, error) {
		pushed = true
		return models.PushResult{}, nil
	}}

	_, err := newTestVault(f, tr).PushLocalChanges(context.Background())
	require.NoError(t, err)
	assert.False(t, pushed)
}

// A local deletion is dirty state like any edit: the push must carry it to
// the server before the dirty mark is cleared.
func TestPushLocalChanges_CarriesLocalDeletion(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-1", models.RecordData{Title: "bye"}, "")

	var got models.PushRequest
	tr := &scriptedTransport{push: func(_ context.Context, req models.PushRequest) (models.PushResult, error) {
		got = req
		return models.PushResult{Revision: 12}, nil
	}}
	svc := newTestVault(f, tr)

	require.NoError(t, svc.DeleteRecord(context.Background(), "rec-1"))

	_, err := svc.PushLocalChanges(context.Background())
	require.NoError(t, err)

	assert.Empty(t, got.Records)
	assert.Equal(t, []string{"rec-1"}, got.Deletions)

	dirty, err := f.cache.DirtyUIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

// A failed push leaves the deletion in the dirty set so the intent is not
// lost; the next push retries it.
func TestPushLocalChanges_FailedPushKeepsDeletionPending(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-1", models.RecordData{Title: "bye"}, "")

	tr := &scriptedTransport{push: func(_ context.Context, _ models.PushRequest) (models.PushResult, error) {
		return models.PushResult{}, adapter.ErrServerUnavailable
	}}
	svc := newTestVault(f, tr)
	require.NoError(t, svc.DeleteRecord(context.Background(), "rec-1"))

	_, err := svc.PushLocalChanges(context.Background())
	require.ErrorIs(t, err, adapter.ErrServerUnavailable)

	dirty, err := f.cache.DirtyUIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1"}, dirty)
}

// A cache read failure mid-push surfaces the real cause and leaves the
// dirty set untouched.
func TestPushLocalChanges_CacheReadFailurePropagates(t *testing.T) {
	f := newVaultFixture(t)
	f.putRecord(t, "rec-1", models.RecordData{Title: "edited"}, "")
	require.NoError(t, f.cache.MarkDirty(context.Background(), "rec-1"))

	cause := errors.New("cache file unreadable")
	f.cache.getErr = cause

	_, err := newTestVault(f, nil).PushLocalChanges(context.Background())
	require.ErrorIs(t, err, cause)

	f.cache.getErr = nil
	dirty, err := f.cache.DirtyUIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-1"}, dirty)
}
