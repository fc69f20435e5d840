// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// Legacy envelope scheme (version 1): AES-256-CBC with PKCS#7 padding and
// an HMAC-SHA256 tag, encrypt-then-MAC. Blob layout:
//
//	iv (16) ‖ ciphertext ‖ tag (32)
//
// The MAC covers iv ‖ ciphertext. The MAC key is domain-separated from the
// encryption key by hashing: macKey = SHA-256(key ‖ "mac"). Current clients
// only decrypt this format; legacyEncrypt exists so tests can produce v1
// fixtures identical to what old clients wrote.

const (
	legacyIVSize  = aes.BlockSize
	legacyTagSize = sha256.Size
)

func legacyMACKey(key []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write([]byte("mac"))
	return h.Sum(nil)
}

func (p *provider) legacyEncrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	iv := make([]byte, legacyIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	mac := hmac.New(sha256.New, legacyMACKey(key))
	mac.Write(iv)
	mac.Write(ct)

	blob := make([]byte, 0, legacyIVSize+len(ct)+legacyTagSize)
	blob = append(blob, iv...)
	blob = append(blob, ct...)
	return mac.Sum(blob), nil
}

func (p *provider) legacyDecrypt(key, blob []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, ErrBadKeyLength
	}
	if len(blob) < legacyIVSize+legacyTagSize+aes.BlockSize {
		return nil, ErrCiphertextTooShort
	}

	iv := blob[:legacyIVSize]
	ct := blob[legacyIVSize : len(blob)-legacyTagSize]
	tag := blob[len(blob)-legacyTagSize:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ragged ciphertext", ErrDecryptFailed)
	}

	// Verify the tag before touching the ciphertext.
	mac := hmac.New(sha256.New, legacyMACKey(key))
	mac.Write(iv)
	mac.Write(ct)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return nil, fmt.Errorf("%w: mac mismatch", ErrDecryptFailed)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	padded := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptFailed, err)
	}
	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
