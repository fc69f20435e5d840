package adapter

import "errors"

// Transport-level sentinel errors. The sync engine only surfaces these;
// retry policy belongs to the caller.
var (
	// ErrUnauthorized is returned when the server rejects the bearer token.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrStaleCursor is returned when the server no longer recognises the
	// client's sync cursor. The client must discard its cache and perform
	// a full resync from revision zero.
	ErrStaleCursor = errors.New("sync cursor is stale or unknown to the server")

	// ErrBadRequest is returned for a malformed request (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrServerUnavailable is returned for 5xx responses and covers
	// transient server-side failures.
	ErrServerUnavailable = errors.New("server unavailable")
)
