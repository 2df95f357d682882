// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// fastParams keeps Argon2id cheap enough for the test suite while staying
// structurally valid.
func fastParams() model.KDFParams {
	return model.KDFParams{MemoryKB: 8 * 1024, Iterations: 1, Parallelism: 1}
}

func testKey(t *testing.T) (key, salt []byte) {
	t.Helper()
	s, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	k, err := DeriveKey([]byte("Tr0ub4dor&3"), s, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	return k, s
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	k1, err := DeriveKey([]byte("pw"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := DeriveKey([]byte("pw"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Errorf("same password/salt/params must derive the same key")
	}

	k3, err := DeriveKey([]byte("other"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Errorf("different passwords must not derive the same key")
	}
}

func TestDeriveKeyInvalidParams(t *testing.T) {
	salt := []byte("0123456789abcdef")
	cases := []struct {
		name   string
		params model.KDFParams
	}{
		{"zero memory", model.KDFParams{MemoryKB: 0, Iterations: 1, Parallelism: 1}},
		{"zero iterations", model.KDFParams{MemoryKB: 8, Iterations: 0, Parallelism: 1}},
		{"zero parallelism", model.KDFParams{MemoryKB: 8, Iterations: 1, Parallelism: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DeriveKey([]byte("pw"), salt, tc.params); !errors.Is(err, ErrKeyDerivation) {
				t.Errorf("expected ErrKeyDerivation, got %v", err)
			}
		})
	}

	if _, err := DeriveKey([]byte("pw"), nil, fastParams()); !errors.Is(err, ErrKeyDerivation) {
		t.Errorf("expected ErrKeyDerivation for empty salt, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, _ := testKey(t)
	aad := []byte("credential-id-1234")
	plaintext := []byte(`{"password":"p4ss","notes":"hi"}`)

	blob, err := Encrypt(plaintext, key, aad)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(blob.Nonce) != NonceSize {
		t.Errorf("nonce length = %d, want %d", len(blob.Nonce), NonceSize)
	}
	if bytes.Contains(blob.Ciphertext, []byte("p4ss")) {
		t.Errorf("ciphertext must not contain the plaintext password")
	}

	got, err := Decrypt(blob, key, aad)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %q", got)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key, _ := testKey(t)
	aad := []byte("id")
	blob, err := Encrypt([]byte("payload"), key, aad)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Flipping any single bit of the ciphertext must fail authentication.
	for i := 0; i < len(blob.Ciphertext); i++ {
		tampered := model.EncryptedBlob{
			Nonce:      blob.Nonce,
			Ciphertext: append([]byte(nil), blob.Ciphertext...),
		}
		tampered.Ciphertext[i] ^= 0x01
		if _, err := Decrypt(tampered, key, aad); !errors.Is(err, ErrDecryption) {
			t.Fatalf("tampered byte %d: expected ErrDecryption, got %v", i, err)
		}
	}
}

func TestDecryptWrongAssociatedData(t *testing.T) {
	key, _ := testKey(t)
	blob, err := Encrypt([]byte("payload"), key, []byte("record-a"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := Decrypt(blob, key, []byte("record-b")); !errors.Is(err, ErrDecryption) {
		t.Errorf("expected ErrDecryption with swapped associated data, got %v", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key, salt := testKey(t)
	blob, err := Encrypt([]byte("payload"), key, nil)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	wrong, err := DeriveKey([]byte("not-the-password"), salt, fastParams())
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if _, err := Decrypt(blob, wrong, nil); !errors.Is(err, ErrDecryption) {
		t.Errorf("expected ErrDecryption with wrong key, got %v", err)
	}
}

func TestNonceUniqueness(t *testing.T) {
	key, _ := testKey(t)
	const n = 2048
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		blob, err := Encrypt([]byte("x"), key, nil)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		s := string(blob.Nonce)
		if seen[s] {
			t.Fatalf("nonce repeated after %d encryptions", i)
		}
		seen[s] = true
	}
}
