// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package codec serializes the structured secret payload to and from the
// byte string the crypto engine encrypts. The encoding is field-tagged JSON,
// so optional fields added later do not break decoding of older records.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// ErrMalformedSecret signals structurally invalid payload bytes. It is
// distinct from a decryption failure: seeing it after a successful decrypt
// means the stored plaintext was corrupt, which is a data-integrity bug.
var ErrMalformedSecret = errors.New("malformed secret payload")

// Encode serializes a secret payload for encryption.
func Encode(s model.Secret) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding secret: %w", err)
	}
	return b, nil
}

// Decode parses payload bytes back into a Secret. The payload must be a JSON
// object; unknown fields are ignored so newer records stay readable by older
// builds and vice versa.
func Decode(b []byte) (model.Secret, error) {
	var s model.Secret
	if len(b) == 0 {
		return s, fmt.Errorf("%w: empty payload", ErrMalformedSecret)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return model.Secret{}, fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}
	return s, nil
}
