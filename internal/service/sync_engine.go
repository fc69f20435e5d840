// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-vault-sync/internal/adapter"
	"github.com/MKhiriev/go-vault-sync/internal/config"
	"github.com/MKhiriev/go-vault-sync/internal/crypto"
	"github.com/MKhiriev/go-vault-sync/internal/keychain"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/internal/store"
	"github.com/MKhiriev/go-vault-sync/models"
)

// SyncState is the engine's current phase.
type SyncState int32

const (
	// SyncIdle means no pass is running.
	SyncIdle SyncState = iota

	// SyncFetching means the engine is pulling deltas from the server.
	SyncFetching

	// SyncApplying means the engine is decrypting and persisting a batch.
	SyncApplying
)

func (s SyncState) String() string {
	switch s {
	case SyncFetching:
		return "fetching"
	case SyncApplying:
		return "applying"
	default:
		return "idle"
	}
}

type syncEngine struct {
	cache     store.CacheRepository
	transport adapter.VaultTransport
	resolver  *keychain.Resolver
	provider  crypto.Provider
	log       *logger.Logger

	parallelism int

	mu    sync.Mutex
	state atomic.Int32
}

// NewSyncEngine builds the delta sync engine. cfg.Parallelism bounds how
// many record payloads of one batch are decrypted concurrently.
func NewSyncEngine(
	cache store.CacheRepository,
	transport adapter.VaultTransport,
	resolver *keychain.Resolver,
	provider crypto.Provider,
	cfg config.Sync,
	log *logger.Logger,
) SyncEngine {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}

	return &syncEngine{
		cache:       cache,
		transport:   transport,
		resolver:    resolver,
		provider:    provider,
		log:         log,
		parallelism: parallelism,
	}
}

func (s *syncEngine) State() SyncState {
	return SyncState(s.state.Load())
}

func (s *syncEngine) setState(st SyncState) {
	s.state.Store(int32(st))
}

func (s *syncEngine) Sync(ctx context.Context) (models.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.setState(SyncIdle)

	s.setState(SyncFetching)

	cursor, err := s.cache.Cursor(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("read sync cursor: %w", err)
	}

	fullResync := false
	batch, err := s.transport.FetchDeltas(ctx, cursor)
	if errors.Is(err, adapter.ErrStaleCursor) {
		s.log.Warn().Int64("cursor", cursor).Msg("server no longer holds our cursor, full resync")
		fullResync = true
		batch, err = s.transport.FetchDeltas(ctx, 0)
	}
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("fetch deltas: %w", err)
	}

	if batch.ResetRequired && !fullResync {
		s.log.Warn().Int64("cursor", cursor).Msg("server requested a vault reset, full resync")
		fullResync = true
		if batch, err = s.transport.FetchDeltas(ctx, 0); err != nil {
			return models.SyncResult{}, fmt.Errorf("fetch deltas after reset: %w", err)
		}
	}

	if fullResync {
		if err = s.cache.Reset(ctx); err != nil {
			return models.SyncResult{}, fmt.Errorf("reset cache: %w", err)
		}
	} else if batch.Empty() && batch.Revision <= cursor {
		// Nothing new; the cursor stays where it is.
		return models.SyncResult{Revision: cursor}, nil
	}

	s.setState(SyncApplying)

	result, err := s.apply(ctx, batch)
	result.FullResync = fullResync
	if err != nil {
		return result, err
	}

	s.log.Info().
		Int64("revision", result.Revision).
		Int("applied", result.Applied).
		Int("deleted", result.Deleted).
		Int("failed", len(result.Failed)).
		Bool("full_resync", result.FullResync).
		Msg("sync pass finished")

	return result, nil
}

// apply turns one delta batch into a single cache transaction. Grants go
// first so later upserts can resolve their keys; folders go parent before
// child; records are decrypted concurrently. An object that fails to
// decrypt is still persisted as ciphertext and reported in the result —
// only structurally undecodable payloads are skipped. A consistency fault
// (grant paths disagreeing, key-wrap cycle, folder parent cycle) is
// structural, not per-object: the pass aborts before anything is
// persisted and the cursor stays on the last committed revision.
func (s *syncEngine) apply(ctx context.Context, batch models.DeltaBatch) (models.SyncResult, error) {
	result := models.SyncResult{Revision: batch.Revision}

	for _, grant := range batch.KeyGrants {
		if err := s.resolver.ApplyGrant(grant); err != nil {
			var fault *models.ConsistencyFault
			if errors.As(err, &fault) {
				return result, fmt.Errorf("apply key grant for %s: %w", grant.TargetUID, err)
			}
			s.log.Warn().Err(err).Str("target", grant.TargetUID).Msg("key grant not applied")
			result.Failed = append(result.Failed, syncFailure(grant.TargetUID, err))
		}
	}

	ordered, err := orderFolders(batch.FolderUpserts)
	if err != nil {
		return result, fmt.Errorf("order folder upserts: %w", err)
	}

	puts := make([]models.CachedObject, 0, len(batch.FolderUpserts)+len(batch.RecordUpserts))

	for _, f := range ordered {
		env, err := models.DecodeEnvelope(f.Data)
		if err != nil {
			result.Failed = append(result.Failed, syncFailure(f.UID, err))
			continue
		}

		kind := models.KindFolder
		if f.Shared {
			kind = models.KindSharedFolder
		}
		obj := models.CachedObject{
			UID:       f.UID,
			Kind:      kind,
			Revision:  f.Revision,
			Envelope:  env,
			Key:       f.Key,
			ParentUID: f.ParentUID,
			Members:   f.Members,
		}

		if err = s.validateObject(obj, new(models.FolderData)); err != nil {
			result.Failed = append(result.Failed, syncFailure(f.UID, err))
		} else {
			result.Applied++
		}
		puts = append(puts, obj)
	}

	recordObjs, recordFailures, err := s.decryptRecords(ctx, batch.RecordUpserts)
	if err != nil {
		return result, err
	}
	result.Applied += len(batch.RecordUpserts) - len(recordFailures)
	result.Failed = append(result.Failed, recordFailures...)
	puts = append(puts, recordObjs...)

	deletions := make([]string, 0, len(batch.Deletions))
	for _, d := range batch.Deletions {
		deletions = append(deletions, d.UID)
	}
	result.Deleted = len(deletions)

	if err = s.cache.ApplyBatch(ctx, puts, deletions, batch.Revision); err != nil {
		return result, fmt.Errorf("apply delta batch at revision %d: %w", batch.Revision, err)
	}

	return result, nil
}

// decryptRecords validates record upserts concurrently. The returned slice
// holds every record that could at least be structurally decoded, in the
// original batch order; failures carry both decode and decrypt errors.
func (s *syncEngine) decryptRecords(ctx context.Context, records []models.Record) ([]models.CachedObject, []models.SyncFailure, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	type outcome struct {
		obj     models.CachedObject
		decoded bool
		err     error
	}
	outcomes := make([]outcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			env, err := models.DecodeEnvelope(rec.Data)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}

			key := rec.Key
			obj := models.CachedObject{
				UID:       rec.UID,
				Kind:      models.KindRecord,
				Revision:  rec.Revision,
				Envelope:  env,
				Key:       &key,
				ParentUID: rec.FolderUID,
			}
			outcomes[i] = outcome{
				obj:     obj,
				decoded: true,
				err:     s.validateObject(obj, new(models.RecordData)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("decrypt record batch: %w", err)
	}

	objs := make([]models.CachedObject, 0, len(records))
	var failures []models.SyncFailure
	for i, rec := range records {
		out := outcomes[i]
		if out.err != nil {
			failures = append(failures, syncFailure(rec.UID, out.err))
		}
		if out.decoded {
			objs = append(objs, out.obj)
		}
	}
	return objs, failures, nil
}

// validateObject proves the object is decryptable and its payload decodes
// into the expected shape. The plaintext is discarded immediately; the
// cache only ever stores ciphertext.
func (s *syncEngine) validateObject(obj models.CachedObject, into any) error {
	key, err := s.resolver.ResolveObjectKey(obj.Key)
	if err != nil {
		if keychain.IsKeyResolutionFailure(err) {
			return &models.UndecryptableError{UID: obj.UID, Cause: err}
		}
		return err
	}

	plain, err := s.provider.OpenEnvelope(key, obj.Envelope)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptFailed) {
			return &models.UndecryptableError{UID: obj.UID, Cause: err}
		}
		return err
	}

	if err = json.Unmarshal(plain, into); err != nil {
		return fmt.Errorf("decode payload of %s: %w", obj.UID, err)
	}
	return nil
}

// orderFolders sorts folder upserts parent before child within the batch.
// Parents outside the batch are assumed already cached. A parent cycle
// cannot be ordered and means the batch would corrupt the folder tree:
// the returned *models.ConsistencyFault aborts the pass.
func orderFolders(ups []models.FolderUpsert) ([]models.FolderUpsert, error) {
	if len(ups) < 2 {
		return ups, nil
	}

	index := make(map[string]int, len(ups))
	for i, f := range ups {
		index[f.UID] = i
	}

	children := make(map[string][]int)
	indegree := make([]int, len(ups))
	for i, f := range ups {
		if f.ParentUID == "" || f.ParentUID == f.UID {
			continue
		}
		if _, ok := index[f.ParentUID]; ok {
			children[f.ParentUID] = append(children[f.ParentUID], i)
			indegree[i]++
		}
	}

	queue := make([]int, 0, len(ups))
	for i := range ups {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	ordered := make([]models.FolderUpsert, 0, len(ups))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		ordered = append(ordered, ups[i])
		for _, child := range children[ups[i].UID] {
			if indegree[child]--; indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(ordered) != len(ups) {
		for i := range ups {
			if indegree[i] > 0 {
				return nil, &models.ConsistencyFault{
					UID:    ups[i].UID,
					Detail: "folder parent links form a cycle",
				}
			}
		}
	}
	return ordered, nil
}

func syncFailure(uid string, err error) models.SyncFailure {
	return models.SyncFailure{UID: uid, Err: err, Reason: err.Error()}
}
