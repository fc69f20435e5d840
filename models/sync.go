// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// DeltaBatch is the ordered set of changes the server reports since a given
// revision. Within one batch the apply order is fixed: key grants first,
// then folder upserts (parent before child), then record upserts, then
// deletions, so no object is ever applied before a key or folder it depends
// on, and a delete can never race ahead of a dependent grant.
type DeltaBatch struct {
	// Revision is the server revision after applying the whole batch.
	// The client cursor advances to this value atomically with the cache
	// writes of the batch.
	Revision int64 `json:"revision"`

	// ResetRequired is set when the server does not recognise the client's
	// cursor (vault reset, history truncated). The client must clear its
	// cache, reset the cursor to zero, and fetch from scratch.
	ResetRequired bool `json:"reset_required,omitempty"`

	// KeyGrants are new or updated key wraps.
	KeyGrants []KeyGrant `json:"key_grants,omitempty"`

	// FolderUpserts are created or changed folders.
	FolderUpserts []FolderUpsert `json:"folder_upserts,omitempty"`

	// RecordUpserts are created or changed records.
	RecordUpserts []Record `json:"record_upserts,omitempty"`

	// Deletions are UIDs removed from the vault.
	Deletions []Deletion `json:"deletions,omitempty"`
}

// Deletion identifies one object removed from the vault.
type Deletion struct {
	// UID is the deleted object's identifier.
	UID string `json:"uid"`

	// Kind tags the deleted object's type.
	Kind ObjectKind `json:"kind"`
}

// Empty reports whether the batch carries no changes at all.
func (b DeltaBatch) Empty() bool {
	return len(b.KeyGrants) == 0 && len(b.FolderUpserts) == 0 &&
		len(b.RecordUpserts) == 0 && len(b.Deletions) == 0
}

// SyncFailure records one object that could not be decrypted or validated
// during a sync pass. The object's ciphertext stays intact in the cache;
// only the plaintext is unavailable.
type SyncFailure struct {
	// UID is the failed object.
	UID string `json:"uid"`

	// Err is the cause: a key-resolution failure, an unknown envelope
	// version, or a corrupt payload.
	Err error `json:"-"`

	// Reason is the human-readable cause, for serialised results.
	Reason string `json:"reason"`
}

// SyncResult summarises one sync pass. Per-object failures are aggregated
// here rather than aborting the pass.
type SyncResult struct {
	// Applied is the number of upserts fully decrypted, validated, and
	// persisted.
	Applied int `json:"applied"`

	// Deleted is the number of objects removed from the cache.
	Deleted int `json:"deleted"`

	// Revision is the cursor after the pass.
	Revision int64 `json:"revision"`

	// FullResync is set when the pass discarded the cache and refetched
	// from revision zero in response to a stale-cursor server reply.
	FullResync bool `json:"full_resync,omitempty"`

	// Failed lists objects kept as opaque ciphertext.
	Failed []SyncFailure `json:"failed,omitempty"`
}

// FailedUIDs returns just the identifiers of the failed objects.
func (r SyncResult) FailedUIDs() []string {
	if len(r.Failed) == 0 {
		return nil
	}
	uids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		uids = append(uids, f.UID)
	}
	return uids
}

// PushRequest uploads locally modified records to the server.
type PushRequest struct {
	// Records are the encrypted records pending upload.
	Records []Record `json:"records"`

	// Deletions are UIDs of records deleted locally and awaiting removal
	// on the server.
	Deletions []string `json:"deletions,omitempty"`

	// Length is the number of entries in Records.
	Length int `json:"length"`
}

// PushResult is the server's acknowledgement of a push.
type PushResult struct {
	// Revision is the server revision after the push.
	Revision int64 `json:"revision"`

	// Revisions maps each accepted record UID to its new server revision.
	Revisions map[string]int64 `json:"revisions,omitempty"`
}
