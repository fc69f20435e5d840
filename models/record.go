package models

// Record is the encrypted form of a vault record as held by the server and
// the local cache. The payload is sealed under a per-record key, and the
// record key is itself wrapped under whichever key grants access to it:
// the owner's data key or a shared-folder key.
type Record struct {
	// UID uniquely identifies the record. Immutable for its lifetime.
	UID string `json:"uid"`

	// Revision is the server revision of this record version.
	Revision int64 `json:"revision"`

	// Key is the record key wrapped for the granting context.
	Key WrappedKey `json:"key"`

	// Data is the encoded envelope (version byte ‖ ciphertext) around the
	// JSON-serialised RecordData.
	Data []byte `json:"data"`

	// FolderUID is the folder containing the record. For records living in
	// a shared folder this matches Key.HolderUID. Empty at the vault root.
	FolderUID string `json:"folder_uid,omitempty"`
}

// RecordData is the decrypted structured payload of a record. It exists
// only in memory, reconstructed on demand; it is never persisted.
type RecordData struct {
	// Title is the display name of the record.
	Title string `json:"title"`

	// Login is the account identifier the record stores credentials for.
	Login string `json:"login,omitempty"`

	// Password is the stored secret.
	Password string `json:"password,omitempty"`

	// URL is the primary resource the credentials apply to.
	URL string `json:"url,omitempty"`

	// Notes is free-form annotation text.
	Notes string `json:"notes,omitempty"`

	// Custom holds user-defined typed fields. Unknown field types written
	// by newer clients round-trip opaquely (see CustomField).
	Custom []CustomField `json:"custom,omitempty"`

	// Attachments lists metadata for encrypted file attachments. Only the
	// metadata travels with the record; blob transfer is handled elsewhere.
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// AttachmentRef describes one encrypted file attachment of a record.
// The file content is stored separately; this structure carries only the
// reference and the wrapped file key.
type AttachmentRef struct {
	// ID identifies the blob in attachment storage.
	ID string `json:"id"`

	// FileName is the original name of the attached file.
	FileName string `json:"file_name"`

	// Size is the plaintext size in bytes.
	Size int64 `json:"size"`

	// Key is the file encryption key wrapped under the record key.
	Key []byte `json:"key"`
}

// DecryptedRecord pairs a record's identity with its plaintext payload.
// Values of this type are scoped to the caller's use and must not outlive it.
type DecryptedRecord struct {
	// UID is the record identifier.
	UID string `json:"uid"`

	// Revision is the revision the plaintext was reconstructed from.
	Revision int64 `json:"revision"`

	// FolderUID is the containing folder, if any.
	FolderUID string `json:"folder_uid,omitempty"`

	// Data is the decrypted payload.
	Data RecordData `json:"data"`
}
