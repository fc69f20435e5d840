// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-vault-sync/internal/adapter"
	"github.com/MKhiriev/go-vault-sync/internal/crypto"
	"github.com/MKhiriev/go-vault-sync/internal/keychain"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/internal/store"
	"github.com/MKhiriev/go-vault-sync/internal/utils"
	"github.com/MKhiriev/go-vault-sync/models"
)

type vaultService struct {
	cache     store.CacheRepository
	transport adapter.VaultTransport
	resolver  *keychain.Resolver
	provider  crypto.Provider
	uuid      *utils.UUIDGenerator
	log       *logger.Logger
}

// NewVaultService builds the decrypted view over the local cache.
func NewVaultService(
	cache store.CacheRepository,
	transport adapter.VaultTransport,
	resolver *keychain.Resolver,
	provider crypto.Provider,
	log *logger.Logger,
) VaultService {
	return &vaultService{
		cache:     cache,
		transport: transport,
		resolver:  resolver,
		provider:  provider,
		uuid:      utils.NewUUIDGenerator(),
		log:       log,
	}
}

func (v *vaultService) GetRecord(ctx context.Context, uid string) (models.DecryptedRecord, error) {
	obj, err := v.cache.Get(ctx, uid)
	if err != nil {
		return models.DecryptedRecord{}, fmt.Errorf("get record %s: %w", uid, err)
	}
	if obj.Kind != models.KindRecord {
		return models.DecryptedRecord{}, fmt.Errorf("%w: %s is not a record", ErrWrongKind, uid)
	}

	return v.decryptRecord(obj)
}

func (v *vaultService) ListRecords(ctx context.Context) ([]models.DecryptedRecord, error) {
	objs, err := v.cache.GetAll(ctx, models.KindRecord)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]models.DecryptedRecord, 0, len(objs))
	for _, obj := range objs {
		rec, err := v.decryptRecord(obj)
		if err != nil {
			var undec *models.UndecryptableError
			if errors.As(err, &undec) {
				v.log.Warn().Err(err).Str("uid", obj.UID).Msg("record skipped, not decryptable")
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (v *vaultService) ListFolderRecords(ctx context.Context, folderUID string) ([]models.DecryptedRecord, error) {
	records, err := v.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	filtered := records[:0]
	for _, rec := range records {
		if rec.FolderUID == folderUID {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

func (v *vaultService) ListFolders(ctx context.Context) ([]models.Folder, error) {
	objs, err := v.cache.GetAll(ctx, models.KindFolder, models.KindSharedFolder)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	if err = checkFolderTree(objs); err != nil {
		return nil, err
	}

	folders := make([]models.Folder, 0, len(objs))
	for _, obj := range objs {
		data, err := v.openFolder(obj)
		if err != nil {
			var undec *models.UndecryptableError
			if errors.As(err, &undec) {
				v.log.Warn().Err(err).Str("uid", obj.UID).Msg("folder skipped, not decryptable")
				continue
			}
			return nil, err
		}
		folders = append(folders, models.Folder{
			UID:       obj.UID,
			ParentUID: obj.ParentUID,
			Name:      data.Name,
			Shared:    obj.Kind == models.KindSharedFolder,
			Members:   obj.Members,
		})
	}
	return folders, nil
}

func (v *vaultService) FolderPath(ctx context.Context, uid string) (string, error) {
	var names []string
	seen := make(map[string]struct{})

	for current := uid; current != ""; {
		if _, ok := seen[current]; ok {
			return "", &models.ConsistencyFault{UID: current, Detail: "folder parent chain forms a cycle"}
		}
		seen[current] = struct{}{}

		obj, err := v.cache.Get(ctx, current)
		if err != nil {
			return "", fmt.Errorf("folder path for %s: %w", uid, err)
		}
		if obj.Kind != models.KindFolder && obj.Kind != models.KindSharedFolder {
			return "", fmt.Errorf("%w: %s is not a folder", ErrWrongKind, current)
		}

		data, err := v.openFolder(obj)
		if err != nil {
			return "", err
		}
		names = append(names, data.Name)
		current = obj.ParentUID
	}

	// Walked leaf to root; the path reads root to leaf.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/"), nil
}

func (v *vaultService) SaveRecord(ctx context.Context, plain models.DecryptedRecord) (string, error) {
	if strings.TrimSpace(plain.Data.Title) == "" {
		return "", ErrEmptyTitle
	}

	uid := plain.UID
	if uid == "" {
		uid = v.uuid.Generate()
	}

	payload, err := json.Marshal(plain.Data)
	if err != nil {
		return "", fmt.Errorf("encode record %s: %w", uid, err)
	}

	recordKey, err := v.provider.NewKey()
	if err != nil {
		return "", fmt.Errorf("new record key: %w", err)
	}

	env, err := v.provider.SealEnvelope(recordKey, payload)
	if err != nil {
		return "", fmt.Errorf("seal record %s: %w", uid, err)
	}

	wrapped, err := v.wrapRecordKey(ctx, recordKey, plain.FolderUID)
	if err != nil {
		return "", fmt.Errorf("wrap key of record %s: %w", uid, err)
	}

	obj := models.CachedObject{
		UID:       uid,
		Kind:      models.KindRecord,
		Revision:  plain.Revision,
		Envelope:  env,
		Key:       &wrapped,
		ParentUID: plain.FolderUID,
	}
	if err = v.cache.Put(ctx, obj); err != nil {
		return "", fmt.Errorf("store record %s: %w", uid, err)
	}
	if err = v.cache.MarkDirty(ctx, uid); err != nil {
		return "", fmt.Errorf("mark record %s dirty: %w", uid, err)
	}

	v.log.Debug().Str("uid", uid).Str("folder", plain.FolderUID).Msg("record saved locally")
	return uid, nil
}

func (v *vaultService) DeleteRecord(ctx context.Context, uid string) error {
	obj, err := v.cache.Get(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", uid, err)
	}
	if obj.Kind != models.KindRecord {
		return fmt.Errorf("%w: %s is not a record", ErrWrongKind, uid)
	}

	if err = v.cache.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete record %s: %w", uid, err)
	}
	if err = v.cache.MarkDirty(ctx, uid); err != nil {
		return fmt.Errorf("mark deletion of %s dirty: %w", uid, err)
	}
	return nil
}

func (v *vaultService) PushLocalChanges(ctx context.Context) (models.PushResult, error) {
	uids, err := v.cache.DirtyUIDs(ctx)
	if err != nil {
		return models.PushResult{}, fmt.Errorf("collect dirty objects: %w", err)
	}
	if len(uids) == 0 {
		return models.PushResult{}, nil
	}

	records := make([]models.Record, 0, len(uids))
	var deletions []string
	pushed := make(map[string]models.CachedObject, len(uids))
	for _, uid := range uids {
		obj, err := v.cache.Get(ctx, uid)
		if errors.Is(err, store.ErrObjectNotFound) {
			// Dirty but gone from the cache: a local deletion pending
			// upload.
			deletions = append(deletions, uid)
			continue
		}
		if err != nil {
			return models.PushResult{}, fmt.Errorf("read dirty object %s: %w", uid, err)
		}
		if obj.Kind != models.KindRecord || obj.Key == nil {
			continue
		}

		records = append(records, models.Record{
			UID:       obj.UID,
			Revision:  obj.Revision,
			Key:       *obj.Key,
			Data:      obj.Envelope.Encode(),
			FolderUID: obj.ParentUID,
		})
		pushed[obj.UID] = obj
	}
	if len(records) == 0 && len(deletions) == 0 {
		return models.PushResult{}, v.cache.ClearDirty(ctx, uids...)
	}

	result, err := v.transport.PushChanges(ctx, models.PushRequest{Records: records, Deletions: deletions})
	if err != nil {
		return models.PushResult{}, fmt.Errorf("push local changes: %w", err)
	}

	// Stamp the acknowledged revisions so the next delta pass does not
	// re-download what we just uploaded.
	for uid, revision := range result.Revisions {
		obj, ok := pushed[uid]
		if !ok {
			continue
		}
		obj.Revision = revision
		if err = v.cache.Put(ctx, obj); err != nil {
			return result, fmt.Errorf("stamp revision of %s: %w", uid, err)
		}
	}

	if err = v.cache.ClearDirty(ctx, uids...); err != nil {
		return result, fmt.Errorf("clear dirty set: %w", err)
	}

	v.log.Info().
		Int("pushed", len(records)).
		Int("deleted", len(deletions)).
		Int64("revision", result.Revision).
		Msg("local changes pushed")
	return result, nil
}

func (v *vaultService) decryptRecord(obj models.CachedObject) (models.DecryptedRecord, error) {
	plain, err := v.open(obj)
	if err != nil {
		return models.DecryptedRecord{}, err
	}

	var data models.RecordData
	if err = json.Unmarshal(plain, &data); err != nil {
		return models.DecryptedRecord{}, fmt.Errorf("decode record %s: %w", obj.UID, err)
	}

	return models.DecryptedRecord{
		UID:       obj.UID,
		Revision:  obj.Revision,
		FolderUID: obj.ParentUID,
		Data:      data,
	}, nil
}

func (v *vaultService) openFolder(obj models.CachedObject) (models.FolderData, error) {
	plain, err := v.open(obj)
	if err != nil {
		return models.FolderData{}, err
	}

	var data models.FolderData
	if err = json.Unmarshal(plain, &data); err != nil {
		return models.FolderData{}, fmt.Errorf("decode folder %s: %w", obj.UID, err)
	}
	return data, nil
}

func (v *vaultService) open(obj models.CachedObject) ([]byte, error) {
	key, err := v.resolver.ResolveObjectKey(obj.Key)
	if err != nil {
		if keychain.IsKeyResolutionFailure(err) {
			return nil, &models.UndecryptableError{UID: obj.UID, Cause: err}
		}
		return nil, err
	}

	plain, err := v.provider.OpenEnvelope(key, obj.Envelope)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptFailed) {
			return nil, &models.UndecryptableError{UID: obj.UID, Cause: err}
		}
		return nil, err
	}
	return plain, nil
}

// wrapRecordKey picks the wrapping context for a new or edited record: the
// folder key when the record lives in a shared folder we hold the key of,
// the account data key otherwise.
func (v *vaultService) wrapRecordKey(ctx context.Context, recordKey []byte, folderUID string) (models.WrappedKey, error) {
	if folderUID != "" {
		folder, err := v.cache.Get(ctx, folderUID)
		if err != nil && !errors.Is(err, store.ErrObjectNotFound) {
			return models.WrappedKey{}, err
		}
		if err == nil && folder.Kind == models.KindSharedFolder {
			if folderKey, ok := v.resolver.Keys().SharedFolderKey(folderUID); ok {
				blob, err := v.provider.WrapKey(recordKey, folderKey)
				if err != nil {
					return models.WrappedKey{}, err
				}
				return models.WrappedKey{
					Type:      models.KeyTypeSharedFolderKey,
					HolderUID: folderUID,
					Blob:      blob,
				}, nil
			}
		}
	}

	blob, err := v.provider.WrapKey(recordKey, v.resolver.Keys().DataKey())
	if err != nil {
		return models.WrappedKey{}, err
	}
	return models.WrappedKey{Type: models.KeyTypeDataKey, Blob: blob}, nil
}

// checkFolderTree verifies the cached parent links still form a forest.
func checkFolderTree(objs []models.CachedObject) error {
	parents := make(map[string]string, len(objs))
	for _, obj := range objs {
		parents[obj.UID] = obj.ParentUID
	}

	for uid := range parents {
		seen := make(map[string]struct{})
		for current := uid; current != ""; current = parents[current] {
			if _, ok := seen[current]; ok {
				return &models.ConsistencyFault{UID: current, Detail: "folder parent chain forms a cycle"}
			}
			seen[current] = struct{}{}
			if _, ok := parents[current]; !ok {
				break
			}
		}
	}
	return nil
}
