// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "errors"

// EnvelopeVersion identifies the container format wrapped around an encrypted
// payload. The version is the first byte of every encoded envelope, so a
// reader can pick the right cipher scheme before touching the ciphertext.
type EnvelopeVersion byte

const (
	// EnvelopeV1 is the legacy scheme: AES-256-CBC with an HMAC-SHA256 tag
	// (encrypt-then-MAC). Current clients never write it, but objects stored
	// on the server by older clients must stay readable indefinitely.
	EnvelopeV1 EnvelopeVersion = 1

	// EnvelopeV2 is the current scheme: AES-256-GCM, nonce prepended to the
	// ciphertext. All new encryptions use this version.
	EnvelopeV2 EnvelopeVersion = 2
)

// CurrentEnvelopeVersion is the version written by this client.
const CurrentEnvelopeVersion = EnvelopeV2

var (
	// ErrEnvelopeTooShort is returned when an encoded envelope blob does not
	// even contain the version byte.
	ErrEnvelopeTooShort = errors.New("envelope blob too short")
)

// Envelope is the versioned container around an encrypted payload.
// Decrypting dispatches on Version; encoding prepends it to the ciphertext
// so the blob is self-describing.
type Envelope struct {
	Version    EnvelopeVersion `json:"version"`
	Ciphertext []byte          `json:"ciphertext"`
}

// Encode serialises the envelope as a single blob: version byte ‖ ciphertext.
func (e Envelope) Encode() []byte {
	blob := make([]byte, 0, 1+len(e.Ciphertext))
	blob = append(blob, byte(e.Version))
	return append(blob, e.Ciphertext...)
}

// DecodeEnvelope splits a blob produced by [Envelope.Encode] back into an
// Envelope. It does not validate the version value: unknown versions must
// survive decoding so callers can keep the ciphertext intact and report a
// format error instead of dropping data.
func DecodeEnvelope(blob []byte) (Envelope, error) {
	if len(blob) < 1 {
		return Envelope{}, ErrEnvelopeTooShort
	}
	return Envelope{Version: EnvelopeVersion(blob[0]), Ciphertext: blob[1:]}, nil
}
