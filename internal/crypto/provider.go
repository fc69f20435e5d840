// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/MKhiriev/go-vault-sync/models"
)

// Sentinel errors returned by the provider. Callers match with [errors.Is].
var (
	// ErrDecryptFailed is returned when an authentication check fails:
	// the ciphertext was tampered with or the key is wrong.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrCiphertextTooShort is returned when a blob is shorter than its
	// scheme's nonce/IV/MAC overhead.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrUnknownEnvelopeVersion is returned by OpenEnvelope when the
	// version tag matches no supported scheme.
	ErrUnknownEnvelopeVersion = errors.New("unknown envelope version")

	// ErrBadKeyLength is returned when a symmetric key is not 32 bytes.
	ErrBadKeyLength = errors.New("key must be 32 bytes")
)

// provider is the private implementation of [Provider].
type provider struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewProvider constructs a [Provider] with the Argon2id parameters
// recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewProvider() Provider {
	return &provider{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
}

// AEADEncrypt implements [Provider]. A random 12-byte nonce is prepended to
// the ciphertext so the decryption side can locate it: blob = nonce ‖ ct.
func (p *provider) AEADEncrypt(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

// AEADDecrypt implements [Provider]. It splits the blob produced by
// AEADEncrypt into nonce and ciphertext, decrypts, and verifies the tag.
func (p *provider) AEADDecrypt(key, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ct := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptFailed, err)
	}
	return plaintext, nil
}

// SealEnvelope implements [Provider]. New data is always written in the
// current envelope version; legacy versions are decrypt-only.
func (p *provider) SealEnvelope(key, plaintext []byte) (models.Envelope, error) {
	ct, err := p.AEADEncrypt(key, plaintext, nil)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("seal envelope: %w", err)
	}
	return models.Envelope{Version: models.CurrentEnvelopeVersion, Ciphertext: ct}, nil
}

// OpenEnvelope implements [Provider]. It dispatches on the version tag so
// objects written by older clients stay readable indefinitely.
func (p *provider) OpenEnvelope(key []byte, env models.Envelope) ([]byte, error) {
	switch env.Version {
	case models.EnvelopeV1:
		return p.legacyDecrypt(key, env.Ciphertext)
	case models.EnvelopeV2:
		return p.AEADDecrypt(key, env.Ciphertext, nil)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEnvelopeVersion, env.Version)
	}
}

// WrapKey implements [Provider]. Wrapping is AEAD over the raw key bytes,
// so a failed unwrap is always detected by the authentication tag.
func (p *provider) WrapKey(key, wrappingKey []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}
	blob, err := p.AEADEncrypt(wrappingKey, key, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}
	return blob, nil
}

// UnwrapKey implements [Provider].
func (p *provider) UnwrapKey(blob, wrappingKey []byte) ([]byte, error) {
	key, err := p.AEADDecrypt(wrappingKey, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}
	return key, nil
}

// WrapKeyRSA implements [Provider].
func (p *provider) WrapKeyRSA(key []byte, pub *rsa.PublicKey) ([]byte, error) {
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}
	blob, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa wrap key: %w", err)
	}
	return blob, nil
}

// UnwrapKeyRSA implements [Provider].
func (p *provider) UnwrapKeyRSA(blob []byte, priv *rsa.PrivateKey) ([]byte, error) {
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: rsa unwrap: %w", ErrDecryptFailed, err)
	}
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}
	return key, nil
}

// DeriveKey implements [Provider]. The derived key exists only in client
// memory and is never transmitted to the server.
func (p *provider) DeriveKey(masterPassword string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(masterPassword),
		salt,
		p.argonTime,
		p.argonMemory,
		p.argonThreads,
		p.argonKeyLen,
	)
}

// NewKey implements [Provider].
func (p *provider) NewKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// NewSalt implements [Provider].
func (p *provider) NewSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
