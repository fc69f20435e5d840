package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/MKhiriev/go-vault-sync/models"
)

func TestNewKey_LengthAndRandomness(t *testing.T) {
	p := NewProvider()

	k1, err := p.NewKey()
	if err != nil {
		t.Fatalf("NewKey error: %v", err)
	}
	k2, err := p.NewKey()
	if err != nil {
		t.Fatalf("NewKey error: %v", err)
	}

	if len(k1) != 32 || len(k2) != 32 {
		t.Fatalf("key lengths = %d, %d, want 32", len(k1), len(k2))
	}
	if bytes.Equal(k1, k2) {
		t.Fatalf("expected keys to differ, but they are equal")
	}
}

func TestDeriveKey_DeterministicForSameInputs(t *testing.T) {
	p := NewProvider()

	password := "correct horse battery staple"
	salt := bytes.Repeat([]byte{0xAB}, 16)

	k1 := p.DeriveKey(password, salt)
	k2 := p.DeriveKey(password, salt)
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same password+salt must derive the same key")
	}

	k3 := p.DeriveKey(password, bytes.Repeat([]byte{0xCD}, 16))
	if bytes.Equal(k1, k3) {
		t.Fatalf("different salts must derive different keys")
	}
}

func TestAEAD_RoundTrip(t *testing.T) {
	p := NewProvider()
	key, _ := p.NewKey()
	plaintext := []byte(`{"title":"email","password":"hunter2"}`)

	ct, err := p.AEADEncrypt(key, plaintext, []byte("uid-1"))
	if err != nil {
		t.Fatalf("AEADEncrypt error: %v", err)
	}

	got, err := p.AEADDecrypt(key, ct, []byte("uid-1"))
	if err != nil {
		t.Fatalf("AEADDecrypt error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestAEADDecrypt_WrongKeyOrTamper(t *testing.T) {
	p := NewProvider()
	key, _ := p.NewKey()
	other, _ := p.NewKey()

	ct, err := p.AEADEncrypt(key, []byte("secret"), nil)
	if err != nil {
		t.Fatalf("AEADEncrypt error: %v", err)
	}

	if _, err = p.AEADDecrypt(other, ct, nil); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("wrong key: err = %v, want ErrDecryptFailed", err)
	}

	ct[len(ct)-1] ^= 0x01
	if _, err = p.AEADDecrypt(key, ct, nil); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("tampered ciphertext: err = %v, want ErrDecryptFailed", err)
	}
}

func TestEnvelope_RoundTripEveryVersion(t *testing.T) {
	p := NewProvider().(*provider)
	key, _ := p.NewKey()
	plaintext := []byte(`{"name":"personal"}`)

	// v2 (current) via SealEnvelope.
	env, err := p.SealEnvelope(key, plaintext)
	if err != nil {
		t.Fatalf("SealEnvelope error: %v", err)
	}
	if env.Version != models.CurrentEnvelopeVersion {
		t.Fatalf("sealed version = %d, want %d", env.Version, models.CurrentEnvelopeVersion)
	}
	got, err := p.OpenEnvelope(key, env)
	if err != nil {
		t.Fatalf("OpenEnvelope v2 error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("v2 round trip mismatch")
	}

	// v1 (legacy) fixture, as an old client would have written it.
	legacyCT, err := p.legacyEncrypt(key, plaintext)
	if err != nil {
		t.Fatalf("legacyEncrypt error: %v", err)
	}
	got, err = p.OpenEnvelope(key, models.Envelope{Version: models.EnvelopeV1, Ciphertext: legacyCT})
	if err != nil {
		t.Fatalf("OpenEnvelope v1 error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("v1 round trip mismatch")
	}
}

func TestOpenEnvelope_UnknownVersion(t *testing.T) {
	p := NewProvider()
	key := bytes.Repeat([]byte{0x11}, 32)

	_, err := p.OpenEnvelope(key, models.Envelope{Version: 99, Ciphertext: []byte("whatever")})
	if !errors.Is(err, ErrUnknownEnvelopeVersion) {
		t.Fatalf("err = %v, want ErrUnknownEnvelopeVersion", err)
	}
}

func TestLegacyDecrypt_TamperDetected(t *testing.T) {
	p := NewProvider().(*provider)
	key := bytes.Repeat([]byte{0x22}, 32)

	blob, err := p.legacyEncrypt(key, []byte("legacy secret"))
	if err != nil {
		t.Fatalf("legacyEncrypt error: %v", err)
	}

	blob[legacyIVSize] ^= 0x01 // flip a ciphertext bit
	if _, err = p.legacyDecrypt(key, blob); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("err = %v, want ErrDecryptFailed", err)
	}
}

func TestWrapUnwrapKey(t *testing.T) {
	p := NewProvider()
	kek, _ := p.NewKey()
	key, _ := p.NewKey()

	blob, err := p.WrapKey(key, kek)
	if err != nil {
		t.Fatalf("WrapKey error: %v", err)
	}

	got, err := p.UnwrapKey(blob, kek)
	if err != nil {
		t.Fatalf("UnwrapKey error: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("unwrapped key differs from original")
	}

	wrong, _ := p.NewKey()
	if _, err = p.UnwrapKey(blob, wrong); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("wrong wrapping key: err = %v, want ErrDecryptFailed", err)
	}
}

func TestWrapUnwrapKeyRSA(t *testing.T) {
	p := NewProvider()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	key, _ := p.NewKey()

	blob, err := p.WrapKeyRSA(key, &priv.PublicKey)
	if err != nil {
		t.Fatalf("WrapKeyRSA error: %v", err)
	}

	got, err := p.UnwrapKeyRSA(blob, priv)
	if err != nil {
		t.Fatalf("UnwrapKeyRSA error: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("unwrapped key differs from original")
	}
}

func TestEnvelope_EncodeDecode(t *testing.T) {
	env := models.Envelope{Version: models.EnvelopeV2, Ciphertext: []byte{0xDE, 0xAD}}

	decoded, err := models.DecodeEnvelope(env.Encode())
	if err != nil {
		t.Fatalf("DecodeEnvelope error: %v", err)
	}
	if decoded.Version != env.Version || !bytes.Equal(decoded.Ciphertext, env.Ciphertext) {
		t.Fatalf("decoded envelope differs: %+v", decoded)
	}

	if _, err = models.DecodeEnvelope(nil); !errors.Is(err, models.ErrEnvelopeTooShort) {
		t.Fatalf("err = %v, want ErrEnvelopeTooShort", err)
	}
}
