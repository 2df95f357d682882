// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data structures shared across SecretPlan:
// credentials, their encrypted secret payloads, vault settings and the audit
// trail. Nothing in this package touches storage or cryptography; it is the
// vocabulary the other layers speak.
package model

import (
	"fmt"
	"strings"
	"time"
)

// BreachState tracks whether a credential's password is known to appear in a
// public breach corpus. It starts Unknown and is only ever changed by an
// explicit breach check.
type BreachState int

const (
	// BreachUnknown means the password has never been checked.
	BreachUnknown BreachState = 0
	// BreachSafe means the last check found no match.
	BreachSafe BreachState = 1
	// BreachCompromised means the last check found the password in a breach.
	BreachCompromised BreachState = 2
)

// String returns a stable lowercase name for the state.
func (b BreachState) String() string {
	switch b {
	case BreachSafe:
		return "safe"
	case BreachCompromised:
		return "compromised"
	default:
		return "unknown"
	}
}

// ParseBreachState maps a name back to a BreachState. Unrecognized input
// yields BreachUnknown and an error.
func ParseBreachState(s string) (BreachState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown":
		return BreachUnknown, nil
	case "safe":
		return BreachSafe, nil
	case "compromised":
		return BreachCompromised, nil
	}
	return BreachUnknown, fmt.Errorf("unknown breach state %q", s)
}

// EncryptedBlob is the opaque authenticated ciphertext container stored for a
// credential's secret. The nonce is generated fresh for every encryption and
// never reused under the same key.
type EncryptedBlob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Credential is the cleartext index record for one stored login. The secret
// payload lives only inside SecretEnc and is decrypted on explicit request.
type Credential struct {
	ID          string
	Site        string
	Username    string
	SecretEnc   EncryptedBlob
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   *time.Time
	Strength    int
	BreachState BreachState
}

// String returns the site/username representation without secret material.
func (c Credential) String() string {
	return fmt.Sprintf("%s (%s)", c.Site, c.Username)
}

// NormalizeTags lowercases, trims and de-duplicates a tag list, dropping
// empties. Order of first appearance is kept.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Secret is the decrypted payload of a credential. It is decoded on demand
// and must never be cached beyond the request that asked for it.
type Secret struct {
	Password     string            `json:"password"`
	Notes        string            `json:"notes,omitempty"`
	TOTPSeed     string            `json:"totp_seed,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// Equal reports whether two secrets carry identical material.
func (s Secret) Equal(o Secret) bool {
	if s.Password != o.Password || s.Notes != o.Notes || s.TOTPSeed != o.TOTPSeed {
		return false
	}
	if len(s.CustomFields) != len(o.CustomFields) {
		return false
	}
	for k, v := range s.CustomFields {
		if o.CustomFields[k] != v {
			return false
		}
	}
	return true
}

// CredentialFilter selects a subset of credentials. All fields are optional
// and combine with AND semantics. Filtering never requires decryption.
type CredentialFilter struct {
	// SearchTerm matches site or username by case-insensitive substring.
	SearchTerm string
	// Tag must be present in the credential's tag set.
	Tag string
	// MinStrength is the inclusive lower bound on the strength score.
	MinStrength *int
	// BreachState must equal the credential's breach state.
	BreachState *BreachState
}

// IsZero reports whether the filter selects everything.
func (f CredentialFilter) IsZero() bool {
	return f.SearchTerm == "" && f.Tag == "" && f.MinStrength == nil && f.BreachState == nil
}

// AuditLogEntry is one immutable row of the vault's audit trail.
type AuditLogEntry struct {
	ID        int64
	Timestamp time.Time
	Action    string
	ItemID    string
}

// KDFParams are the public Argon2id tuning parameters. They are persisted
// next to the salt, unencrypted, so unlock can reproduce the same key.
type KDFParams struct {
	MemoryKB    uint32 `json:"memory_kb"`
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultKDFParams returns the Argon2id parameters used for new vaults.
func DefaultKDFParams() KDFParams {
	return KDFParams{MemoryKB: 64 * 1024, Iterations: 3, Parallelism: 4}
}

// VaultSettings is the encrypted application settings blob. Readable only
// while the vault is unlocked.
type VaultSettings struct {
	AutoLockMinutes int       `json:"auto_lock_minutes"`
	KDF             KDFParams `json:"kdf"`
}

// DefaultVaultSettings returns the settings written at vault creation.
func DefaultVaultSettings() VaultSettings {
	return VaultSettings{AutoLockMinutes: 5, KDF: DefaultKDFParams()}
}

// BackupData is the container serialized into compressed vault backups.
// Credentials keep their ciphertext; no plaintext secret ever enters a
// backup file.
type BackupData struct {
	Version     int             `json:"version"`
	ExportedAt  time.Time       `json:"exported_at"`
	Meta        []MetaRow       `json:"meta"`
	Credentials []Credential    `json:"credentials"`
	AuditLog    []AuditLogEntry `json:"audit_log"`
}

// MetaRow is one row of the settings store as it appears in a backup.
type MetaRow struct {
	Name  string `json:"name"`
	Nonce []byte `json:"nonce,omitempty"`
	Value []byte `json:"value"`
}
