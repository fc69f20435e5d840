// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// PermissionMask is a bit set of shared-folder permissions granted to a
// principal. The admin bit implies every lesser permission; callers must go
// through Effective before testing individual bits.
type PermissionMask uint8

const (
	// PermManageRecords allows adding, editing, and removing folder records.
	PermManageRecords PermissionMask = 1 << iota

	// PermManageUsers allows changing folder membership.
	PermManageUsers

	// PermCanEdit allows editing records the principal can already see.
	PermCanEdit

	// PermCanShare allows re-sharing records outside the folder.
	PermCanShare

	// PermAdmin marks a folder administrator. Administrators implicitly
	// hold all lesser permissions.
	PermAdmin
)

// permAll is every lesser permission an administrator inherits.
const permAll = PermManageRecords | PermManageUsers | PermCanEdit | PermCanShare

// Effective expands the admin bit into the full permission set, keeping the
// monotonicity invariant: an administrator can do everything a holder of any
// lesser permission can.
func (m PermissionMask) Effective() PermissionMask {
	if m&PermAdmin != 0 {
		return m | permAll
	}
	return m
}

// Has reports whether the effective mask includes all bits of p.
func (m PermissionMask) Has(p PermissionMask) bool {
	return m.Effective()&p == p
}

// SharedFolderMember is one (folder, principal) access grant: the folder key
// wrapped for that principal plus the principal's permission bits.
type SharedFolderMember struct {
	// PrincipalUID identifies the user or team holding the grant.
	PrincipalUID string `json:"principal_uid"`

	// PrincipalType distinguishes users from teams.
	PrincipalType PrincipalType `json:"principal_type"`

	// Key is the folder key wrapped under the principal's key (data key or
	// RSA public key for users, team key for teams).
	Key WrappedKey `json:"key"`

	// Permissions are the bits granted to this principal on the folder.
	Permissions PermissionMask `json:"permissions"`
}

// FolderData is the decrypted payload of a folder object. Folder structure
// (parent links) is stored outside the ciphertext so the tree can be kept
// well-formed without decrypting every node.
type FolderData struct {
	// Name is the display name of the folder.
	Name string `json:"name"`
}

// Folder is the decrypted view of a folder exposed to callers.
type Folder struct {
	// UID is the folder identifier.
	UID string `json:"uid"`

	// ParentUID is the containing folder; empty at the vault root.
	// Every folder has at most one parent: the tree is a forest.
	ParentUID string `json:"parent_uid,omitempty"`

	// Name is the decrypted display name.
	Name string `json:"name"`

	// Shared reports whether the folder is shared with other principals.
	Shared bool `json:"shared"`

	// Members holds the access grants of a shared folder. Empty otherwise.
	Members []SharedFolderMember `json:"members,omitempty"`
}

// FolderUpsert is an encrypted folder change delivered during sync.
type FolderUpsert struct {
	// UID is the folder identifier.
	UID string `json:"uid"`

	// ParentUID is the folder's parent after the change.
	ParentUID string `json:"parent_uid,omitempty"`

	// Revision is the server revision of this folder version.
	Revision int64 `json:"revision"`

	// Shared marks a shared folder.
	Shared bool `json:"shared"`

	// Key is the folder key wrapped for the granting context. Nil for plain
	// folders, whose payload is sealed directly under the account data key.
	Key *WrappedKey `json:"key,omitempty"`

	// Data is the encoded envelope around the JSON-serialised FolderData.
	Data []byte `json:"data"`

	// Members carries the folder's access grants for shared folders.
	Members []SharedFolderMember `json:"members,omitempty"`
}
