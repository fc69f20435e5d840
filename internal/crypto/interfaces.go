// Package crypto supplies the primitive contract the vault core composes:
// symmetric authenticated encryption, key wrapping, asymmetric member
// wraps, and password-based key derivation. It knows nothing about records,
// folders, sync, or storage — its single job is turning key bytes and
// payload bytes into each other safely.
package crypto

import (
	"crypto/rsa"

	"github.com/MKhiriev/go-vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_provider_mock.go -package=mock

// Provider is the crypto primitive adapter consumed by the key hierarchy
// manager and the vault object model. Implementations must treat every
// authentication failure as fatal for that operation: no partial plaintext
// is ever returned.
type Provider interface {
	// AEADEncrypt encrypts plaintext under a 32-byte key with AES-256-GCM.
	// aad is authenticated but not encrypted; pass nil when no associated
	// data is bound to the ciphertext. The returned blob is
	// nonce ‖ ciphertext.
	AEADEncrypt(key, plaintext, aad []byte) ([]byte, error)

	// AEADDecrypt reverses AEADEncrypt. Returns an error wrapping
	// ErrDecryptFailed when the authentication tag does not verify
	// (tampering or wrong key).
	AEADDecrypt(key, ciphertext, aad []byte) ([]byte, error)

	// SealEnvelope encrypts plaintext into an envelope of the current
	// version. Encryption always writes the newest format.
	SealEnvelope(key, plaintext []byte) (models.Envelope, error)

	// OpenEnvelope decrypts an envelope, dispatching on its version tag to
	// the matching scheme. Every version ever written must stay readable.
	// An unrecognised version yields an error wrapping
	// ErrUnknownEnvelopeVersion; the caller keeps the ciphertext intact.
	OpenEnvelope(key []byte, env models.Envelope) ([]byte, error)

	// WrapKey encrypts key under wrappingKey (AEAD). Both must be 32 bytes.
	WrapKey(key, wrappingKey []byte) ([]byte, error)

	// UnwrapKey reverses WrapKey. A failed authentication check yields an
	// error wrapping ErrDecryptFailed and no key material.
	UnwrapKey(blob, wrappingKey []byte) ([]byte, error)

	// WrapKeyRSA encrypts key for a principal's RSA public key with
	// RSA-OAEP-SHA256. Used to share a key with a member whose symmetric
	// keys are not available to the sharer.
	WrapKeyRSA(key []byte, pub *rsa.PublicKey) ([]byte, error)

	// UnwrapKeyRSA reverses WrapKeyRSA with the member's private key.
	UnwrapKeyRSA(blob []byte, priv *rsa.PrivateKey) ([]byte, error)

	// DeriveKey derives the 256-bit account key-encryption key from the
	// master password and salt via Argon2id. The result exists only in
	// client memory.
	DeriveKey(masterPassword string, salt []byte) []byte

	// NewKey returns 32 fresh random bytes from the OS CSPRNG, suitable as
	// a record, folder, or team key.
	NewKey() ([]byte, error)

	// NewSalt returns 16 fresh random bytes for key derivation.
	NewSalt() ([]byte, error)
}
