package models

// ObjectKind is the type tag of an object held in the local cache.
type ObjectKind int

const (
	// KindRecord is an encrypted vault record.
	KindRecord ObjectKind = 1

	// KindFolder is a plain (user-owned) folder.
	KindFolder ObjectKind = 2

	// KindSharedFolder is a folder shared with other principals.
	KindSharedFolder ObjectKind = 3

	// KindTeam is a team principal the account belongs to.
	KindTeam ObjectKind = 4
)

// CachedObject is the persisted form of a vault object: ciphertext plus the
// sync metadata the cache tracks per object. The cache never sees plaintext;
// the envelope payload stays opaque until a caller decrypts it on demand.
type CachedObject struct {
	// UID is the object's unique identifier, immutable for its lifetime.
	UID string `json:"uid"`

	// Kind tags the object type so readers know how to interpret the
	// decrypted payload.
	Kind ObjectKind `json:"kind"`

	// Revision is the server revision at which this ciphertext was written.
	Revision int64 `json:"revision"`

	// Envelope holds the versioned ciphertext of the object payload.
	Envelope Envelope `json:"envelope"`

	// Key is the object's own key wrapped for one of the keys this account
	// can resolve. Nil when the payload is encrypted directly under the
	// account data key (plain folders).
	Key *WrappedKey `json:"key,omitempty"`

	// ParentUID is the containing folder for records and child folders.
	// Empty at the vault root.
	ParentUID string `json:"parent_uid,omitempty"`

	// Members holds per-principal key wraps and permission bits for shared
	// folders. Empty for every other kind.
	Members []SharedFolderMember `json:"members,omitempty"`
}
