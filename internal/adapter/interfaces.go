// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for talking to the
// remote vault store.
//
// The primary abstraction is [VaultTransport], which decouples the sync
// engine from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPVaultTransport]); session establishment and
// authentication live outside the core — the transport only carries an
// opaque bearer token it was handed.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrStaleCursor] for 410, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/vault_transport_mock.go -package=mock

// VaultTransport defines transport-agnostic communication with the remote
// authoritative vault store. Implementations are responsible for
// serialisation, authentication header management, and mapping
// transport-level errors to the sentinel values defined in this package.
//
// Both calls are suspension points: they must honour ctx cancellation and
// deadlines, and a cancelled call has no side effects on the caller's state.
type VaultTransport interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	// The token is opaque to the core; whoever established the session
	// hands it over.
	SetToken(token string)

	// Token returns the bearer token currently stored in the transport, or
	// an empty string if none has been set yet.
	Token() string

	// FetchDeltas requests all changes since the given revision. The server
	// answers with an ordered delta batch; if it no longer recognises the
	// revision (vault reset, truncated history) the batch has ResetRequired
	// set, or the call fails with a wrapped [ErrStaleCursor].
	FetchDeltas(ctx context.Context, sinceRevision int64) (models.DeltaBatch, error)

	// PushChanges uploads locally modified encrypted records and returns
	// the new server revisions assigned to them.
	PushChanges(ctx context.Context, req models.PushRequest) (models.PushResult, error)
}
