package models

import "fmt"

// ConsistencyFault reports a structural contradiction in the vault: two key
// paths that disagree, an ambiguous revocation, or a cycle in the folder
// tree or key graph. Faults are never auto-repaired; the sync pass that
// detects one aborts and a full resync is recommended.
type ConsistencyFault struct {
	// UID is the object or key holder the fault was detected on.
	UID string

	// Detail describes the contradiction.
	Detail string
}

func (f *ConsistencyFault) Error() string {
	return fmt.Sprintf("consistency fault on %s: %s", f.UID, f.Detail)
}

// UndecryptableError marks a single object that could not be decrypted:
// no held key unwraps it, its envelope version is unknown, or its payload
// fails authentication. The object's ciphertext is kept intact in the cache
// and the failure is surfaced to callers rather than skipped silently.
type UndecryptableError struct {
	// UID is the affected object.
	UID string

	// Cause is the underlying failure.
	Cause error
}

func (e *UndecryptableError) Error() string {
	return fmt.Sprintf("object %s is undecryptable: %v", e.UID, e.Cause)
}

func (e *UndecryptableError) Unwrap() error {
	return e.Cause
}
