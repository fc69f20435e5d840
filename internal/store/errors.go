package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrObjectNotFound is returned when a lookup targets a UID that is not
	// present in the cache.
	ErrObjectNotFound = errors.New("cached object not found")

	// ErrCursorRegression is returned when an attempt is made to move the
	// sync cursor backwards outside of an explicit full-resync reset.
	ErrCursorRegression = errors.New("sync cursor may not decrease")

	// ErrSchemaUnsupported is returned when the on-disk cache schema version
	// is newer than this client understands. The caller should discard the
	// cache and perform a full resync.
	ErrSchemaUnsupported = errors.New("cache schema version not supported")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied. Any of them means local persistence is failing;
// no silent data loss is tolerated, so they always propagate.
var (
	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan cached object row")
)
