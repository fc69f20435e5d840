// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package keychain resolves which key unwraps which ciphertext across the
// vault's ownership tiers: account data key → team key → shared-folder key
// → per-object key. It owns the unwrapped key material of a session
// ([KeyContext]) and the wrap-relationship DAG ([KeyGraph]); the actual
// cipher operations are delegated to the crypto provider.
package keychain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-vault-sync/internal/crypto"
	"github.com/MKhiriev/go-vault-sync/models"
)

var (
	// ErrKeyNotResolved is returned when none of the held keys can unwrap
	// the requested key blob. The object stays in the cache as opaque
	// ciphertext; it is surfaced to callers, never skipped silently.
	ErrKeyNotResolved = errors.New("no held key resolves the wrapped key")

	// ErrGrantTarget is returned for a grant whose target kind is neither
	// a team nor a shared folder.
	ErrGrantTarget = errors.New("grant target must be a team or shared folder")
)

// IsKeyResolutionFailure reports whether err means an object is
// undecryptable with the keys at hand: either no key path exists, or the
// unwrap failed authentication (tamper or wrong key).
func IsKeyResolutionFailure(err error) bool {
	return errors.Is(err, ErrKeyNotResolved) || errors.Is(err, crypto.ErrDecryptFailed)
}

// Resolver is the key hierarchy manager. It applies key grants into a
// [KeyContext], maintains the wrap DAG, and resolves per-object keys with a
// fixed precedence: the object's shared-folder key first (most specific),
// then team keys, then account-level ownership.
type Resolver struct {
	provider crypto.Provider
	keys     *KeyContext
	graph    *KeyGraph
}

// NewResolver builds a resolver over the given key context.
func NewResolver(provider crypto.Provider, keys *KeyContext) *Resolver {
	return &Resolver{
		provider: provider,
		keys:     keys,
		graph:    NewKeyGraph(),
	}
}

// Keys exposes the underlying key context.
func (r *Resolver) Keys() *KeyContext {
	return r.keys
}

// ApplyGrant processes one key-grant change. Active grants unwrap the
// delivered key and store it in the context; revocations drop the key.
//
// Two invariants are enforced here rather than at lookup time:
//   - the wrap DAG stays acyclic (a cycle is a *models.ConsistencyFault);
//   - when a key for the target is already held via another path, the newly
//     unwrapped bytes must be identical. A mismatch — including an active
//     grant disagreeing with what a not-yet-revoked path produced — is a
//     *models.ConsistencyFault, reported and never auto-repaired by picking
//     one side.
func (r *Resolver) ApplyGrant(grant models.KeyGrant) error {
	if grant.TargetKind != models.KindTeam && grant.TargetKind != models.KindSharedFolder {
		return fmt.Errorf("%w: kind %d", ErrGrantTarget, grant.TargetKind)
	}

	if grant.Revoked {
		switch grant.TargetKind {
		case models.KindTeam:
			r.keys.dropTeamKey(grant.TargetUID)
		case models.KindSharedFolder:
			r.keys.dropFolderKey(grant.TargetUID)
		}
		return nil
	}

	if err := r.graph.AddEdge(grantHolderNode(grant.Key), grantTargetNode(grant)); err != nil {
		return err
	}

	key, err := r.ResolveObjectKey(&grant.Key)
	if err != nil {
		return fmt.Errorf("apply grant for %s: %w", grant.TargetUID, err)
	}

	switch grant.TargetKind {
	case models.KindTeam:
		if held, ok := r.keys.TeamKey(grant.TargetUID); ok && !bytes.Equal(held, key) {
			return &models.ConsistencyFault{
				UID:    grant.TargetUID,
				Detail: "team key differs between grant paths",
			}
		}
		r.keys.putTeamKey(grant.TargetUID, key)
	case models.KindSharedFolder:
		if held, ok := r.keys.SharedFolderKey(grant.TargetUID); ok && !bytes.Equal(held, key) {
			return &models.ConsistencyFault{
				UID:    grant.TargetUID,
				Detail: "shared-folder key differs between grant paths",
			}
		}
		r.keys.putFolderKey(grant.TargetUID, key)
	}

	return nil
}

// ResolveObjectKey returns the symmetric key an object's payload is sealed
// under. A nil wrapped key means the payload is sealed directly under the
// account data key. Any failure wraps ErrKeyNotResolved or
// crypto.ErrDecryptFailed; see [IsKeyResolutionFailure].
func (r *Resolver) ResolveObjectKey(wrapped *models.WrappedKey) ([]byte, error) {
	if wrapped == nil {
		return r.keys.DataKey(), nil
	}

	wrappingKey, err := r.wrappingKeyFor(wrapped)
	if err != nil {
		return nil, err
	}

	if wrapped.Type == models.KeyTypePublicKey {
		key, err := r.provider.UnwrapKeyRSA(wrapped.Blob, r.keys.PrivateKey())
		if err != nil {
			return nil, fmt.Errorf("unwrap with private key: %w", err)
		}
		return key, nil
	}

	key, err := r.provider.UnwrapKey(wrapped.Blob, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap with %s: %w", keyTypeName(wrapped.Type), err)
	}
	return key, nil
}

// wrappingKeyFor picks the held key identified by the wrap reference.
// Symmetric types return key bytes; the asymmetric type only checks the
// private key is present (the unwrap itself uses RSA, not AEAD).
func (r *Resolver) wrappingKeyFor(wrapped *models.WrappedKey) ([]byte, error) {
	switch wrapped.Type {
	case models.KeyTypeSharedFolderKey:
		if key, ok := r.keys.SharedFolderKey(wrapped.HolderUID); ok {
			return key, nil
		}
		return nil, fmt.Errorf("%w: shared folder %s", ErrKeyNotResolved, wrapped.HolderUID)

	case models.KeyTypeTeamKey:
		if key, ok := r.keys.TeamKey(wrapped.HolderUID); ok {
			return key, nil
		}
		return nil, fmt.Errorf("%w: team %s", ErrKeyNotResolved, wrapped.HolderUID)

	case models.KeyTypeDataKey:
		return r.keys.DataKey(), nil

	case models.KeyTypePublicKey:
		if r.keys.PrivateKey() == nil {
			return nil, fmt.Errorf("%w: no private key loaded", ErrKeyNotResolved)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: unknown wrap type %d", ErrKeyNotResolved, wrapped.Type)
	}
}

func grantHolderNode(key models.WrappedKey) string {
	switch key.Type {
	case models.KeyTypeTeamKey:
		return TeamNode(key.HolderUID)
	case models.KeyTypeSharedFolderKey:
		return FolderNode(key.HolderUID)
	default:
		// Data-key and public-key wraps both resolve at the account tier.
		return NodeAccount
	}
}

func grantTargetNode(grant models.KeyGrant) string {
	if grant.TargetKind == models.KindTeam {
		return TeamNode(grant.TargetUID)
	}
	return FolderNode(grant.TargetUID)
}

func keyTypeName(t models.KeyType) string {
	switch t {
	case models.KeyTypeDataKey:
		return "data key"
	case models.KeyTypeSharedFolderKey:
		return "shared-folder key"
	case models.KeyTypeTeamKey:
		return "team key"
	case models.KeyTypePublicKey:
		return "public key"
	default:
		return "unknown key"
	}
}
