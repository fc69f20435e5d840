// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// KeyType identifies which key a wrapped key blob was encrypted under.
// It tells the key hierarchy manager where to look in the key context
// before attempting an unwrap.
type KeyType int

const (
	// KeyTypeDataKey marks a blob wrapped with the account data key.
	KeyTypeDataKey KeyType = 1

	// KeyTypeSharedFolderKey marks a blob wrapped with a shared-folder key.
	// WrappedKey.HolderUID carries the folder UID.
	KeyTypeSharedFolderKey KeyType = 2

	// KeyTypeTeamKey marks a blob wrapped with a team key.
	// WrappedKey.HolderUID carries the team UID.
	KeyTypeTeamKey KeyType = 3

	// KeyTypePublicKey marks a blob wrapped with the member's RSA public key
	// (RSA-OAEP). Used when a key is shared to a principal that has never
	// been online to receive a symmetric wrap.
	KeyTypePublicKey KeyType = 4
)

// WrappedKey is an encrypted symmetric key together with the reference to
// the key that encrypted it. The blob is opaque until unwrapped; a failed
// authentication check during unwrap means tampering or a wrong key.
type WrappedKey struct {
	// Type identifies the wrapping key class.
	Type KeyType `json:"type"`

	// HolderUID identifies the specific wrapping key when Type refers to a
	// shared folder or team. Empty for account-level wraps.
	HolderUID string `json:"holder_uid,omitempty"`

	// Blob is the encrypted key material.
	Blob []byte `json:"blob"`
}

// PrincipalType distinguishes the two kinds of entities that can hold
// access grants on a shared folder.
type PrincipalType int

const (
	// PrincipalUser is an individual account.
	PrincipalUser PrincipalType = 1

	// PrincipalTeam is a team aggregating multiple accounts.
	PrincipalTeam PrincipalType = 2
)

// KeyGrant delivers a new or updated key wrap during sync. Grants are
// applied before any object upserts because later objects in the same batch
// may only be decryptable with the granted key.
type KeyGrant struct {
	// TargetUID is the UID of the shared folder or team whose key is being
	// delivered.
	TargetUID string `json:"target_uid"`

	// TargetKind is KindSharedFolder or KindTeam.
	TargetKind ObjectKind `json:"target_kind"`

	// Key is the target's key, wrapped for a key already held by this
	// client (data key, team key, or RSA public key).
	Key WrappedKey `json:"key"`

	// Revoked marks a grant that has been withdrawn. A revoked grant removes
	// the corresponding access path; an object reachable only through
	// revoked grants becomes undecryptable on the next resync.
	Revoked bool `json:"revoked,omitempty"`
}
