// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package crypto is the vault's crypto engine: Argon2id key derivation from
// the master password and AES-256-GCM authenticated encryption of secret
// payloads. It holds no state beyond its parameters; key lifetime is owned
// by the vault manager.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/JacobLinCool/secret-plan/internal/model"
	"github.com/JacobLinCool/secret-plan/internal/security"
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32
	// SaltSize is the KDF salt length in bytes.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
)

// ErrKeyDerivation is returned when the KDF parameters are unusable.
var ErrKeyDerivation = errors.New("key derivation failed")

// ErrDecryption is returned on any authentication failure during decryption.
// A wrong key and tampered data are indistinguishable through this error.
var ErrDecryption = errors.New("decryption failed")

// ErrEncryption is returned when sealing a payload fails.
var ErrEncryption = errors.New("encryption failed")

// GenerateSalt returns a fresh random KDF salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: reading random salt: %v", ErrKeyDerivation, err)
	}
	return salt, nil
}

// DeriveKey stretches the master password into a 256-bit session key using
// Argon2id with the given public parameters. The same password, salt and
// params always yield the same key; unlock depends on that determinism.
func DeriveKey(masterPassword []byte, salt []byte, params model.KDFParams) (security.Secret, error) {
	if params.MemoryKB == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("%w: invalid parameters m=%d t=%d p=%d",
			ErrKeyDerivation, params.MemoryKB, params.Iterations, params.Parallelism)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrKeyDerivation)
	}
	key := argon2.IDKey(masterPassword, salt, params.Iterations, params.MemoryKB, params.Parallelism, KeySize)
	out := security.FromBytes(key)
	security.Wipe(key)
	return out, nil
}

// Encrypt seals plaintext under key with AES-256-GCM. The nonce is generated
// inside this call, fresh and uniformly at random every time; callers cannot
// supply one, which rules out nonce reuse structurally. associatedData binds
// the ciphertext to its owning record so a swapped blob fails to open.
func Encrypt(plaintext []byte, key security.Secret, associatedData []byte) (model.EncryptedBlob, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return model.EncryptedBlob{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return model.EncryptedBlob{}, fmt.Errorf("%w: reading random nonce: %v", ErrEncryption, err)
	}

	ct := aead.Seal(nil, nonce, plaintext, associatedData)
	return model.EncryptedBlob{Nonce: nonce, Ciphertext: ct}, nil
}

// Decrypt opens a sealed blob. Any authentication failure, whether from a
// wrong key, a flipped ciphertext bit or mismatched associated data, yields
// ErrDecryption and no partial plaintext.
func Decrypt(blob model.EncryptedBlob, key security.Secret, associatedData []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(blob.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrDecryption, NonceSize)
	}
	pt, err := aead.Open(nil, blob.Nonce, blob.Ciphertext, associatedData)
	if err != nil {
		return nil, ErrDecryption
	}
	return pt, nil
}

func newAEAD(key security.Secret) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrEncryption, KeySize)
	}
	var aead cipher.AEAD
	err := key.Use(func(kb []byte) error {
		block, err := aes.NewCipher(kb)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncryption, err)
		}
		aead, err = cipher.NewGCM(block)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncryption, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aead, nil
}
