// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vault holds the session state machine and orchestrates the crypto
// engine, the secret codec, the store and the breach oracle. It is the only
// layer that ever sees both the session key and plaintext secrets.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JacobLinCool/secret-plan/internal/breach"
	"github.com/JacobLinCool/secret-plan/internal/codec"
	"github.com/JacobLinCool/secret-plan/internal/crypto"
	"github.com/JacobLinCool/secret-plan/internal/db"
	"github.com/JacobLinCool/secret-plan/internal/model"
	"github.com/JacobLinCool/secret-plan/internal/security"
	"github.com/JacobLinCool/secret-plan/internal/strength"
)

// State is the vault session state.
type State int

const (
	// StateUninitialized means no vault has been created in the store.
	StateUninitialized State = iota
	// StateLocked means the vault exists but no session key is held.
	StateLocked
	// StateUnlocked means a session key is in memory.
	StateUnlocked
)

// String returns a stable lowercase name for the state.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "uninitialized"
	}
}

// Settings-store row names.
const (
	metaSalt      = "kdf_salt"
	metaKDFParams = "kdf_params"
	metaVerifier  = "verifier"
	metaSettings  = "settings"
)

// Associated-data labels for vault-level blobs. Credential blobs use the
// record id instead, so ciphertexts cannot be swapped between rows or roles.
var (
	aadVerifier = []byte("secretplan/verifier")
	aadSettings = []byte("secretplan/settings")
)

// Audit trail action names.
const (
	ActionVaultCreated     = "vault_created"
	ActionVaultUnlocked    = "vault_unlocked"
	ActionVaultLocked      = "vault_locked"
	ActionCredentialAdded  = "credential_added"
	ActionCredentialEdited = "credential_updated"
	ActionCredentialErased = "credential_deleted"
	ActionSecretRevealed   = "secret_revealed"
	ActionBreachChecked    = "breach_checked"
	ActionPasswordChanged  = "master_password_changed"
	ActionVaultRestored    = "vault_restored"
)

const verifierSize = 32

// Manager owns the vault session. All methods are safe for concurrent use;
// the mutex is never held across a network call.
type Manager struct {
	mu     sync.Mutex
	store  db.Store
	oracle breach.Oracle
	key    security.Secret
	kdf    model.KDFParams
}

// New builds a Manager over a store and a breach oracle. The vault starts
// locked (or uninitialized, if the store holds no vault yet).
func New(store db.Store, oracle breach.Oracle) *Manager {
	return &Manager{store: store, oracle: oracle, kdf: model.DefaultKDFParams()}
}

// indexRecord strips the ciphertext from a credential before it leaves the
// vault. Callers get the index fields only; the secret is read through
// RevealSecret, which is audited.
func indexRecord(c *model.Credential) *model.Credential {
	out := *c
	out.SecretEnc = model.EncryptedBlob{}
	return &out
}

// storeErr classifies a repository error. Row-level sentinels pass through
// untouched so callers can match them; everything else is a storage failure.
func storeErr(op string, err error) error {
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrDuplicate) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// State reports the current session state.
func (m *Manager) State() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key != nil {
		return StateUnlocked, nil
	}
	salt, err := m.store.GetMeta(metaSalt)
	if err != nil {
		return StateUninitialized, storeErr("reading vault state", err)
	}
	if salt == nil {
		return StateUninitialized, nil
	}
	return StateLocked, nil
}

// Create initializes a new vault with the given master password and leaves it
// unlocked. It writes the KDF salt and parameters, an encrypted key verifier
// and the default settings blob. Creating over an existing vault fails with
// ErrVaultExists; the stored data is never touched.
func (m *Manager) Create(masterPassword []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.GetMeta(metaSalt)
	if err != nil {
		return storeErr("checking for existing vault", err)
	}
	if existing != nil {
		return ErrVaultExists
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	key, err := crypto.DeriveKey(masterPassword, salt, m.kdf)
	if err != nil {
		return err
	}

	paramsJSON, err := json.Marshal(m.kdf)
	if err != nil {
		key.Zero()
		return fmt.Errorf("encoding kdf params: %w", err)
	}

	verifier := make([]byte, verifierSize)
	if _, err := rand.Read(verifier); err != nil {
		key.Zero()
		return fmt.Errorf("generating verifier: %w", err)
	}
	verifierBlob, err := crypto.Encrypt(verifier, key, aadVerifier)
	if err != nil {
		key.Zero()
		return err
	}

	settingsJSON, err := json.Marshal(model.DefaultVaultSettings())
	if err != nil {
		key.Zero()
		return fmt.Errorf("encoding settings: %w", err)
	}
	settingsBlob, err := crypto.Encrypt(settingsJSON, key, aadSettings)
	if err != nil {
		key.Zero()
		return err
	}

	rows := []model.MetaRow{
		{Name: metaSalt, Value: salt},
		{Name: metaKDFParams, Value: paramsJSON},
		{Name: metaVerifier, Nonce: verifierBlob.Nonce, Value: verifierBlob.Ciphertext},
		{Name: metaSettings, Nonce: settingsBlob.Nonce, Value: settingsBlob.Ciphertext},
	}
	for _, row := range rows {
		if err := m.store.PutMeta(row); err != nil {
			key.Zero()
			return storeErr("writing vault metadata", err)
		}
	}

	m.key = key
	if _, err := m.store.AppendAudit(ActionVaultCreated, ""); err != nil {
		return storeErr("recording audit event", err)
	}
	return nil
}

// Unlock derives the session key from the master password and verifies it
// against the stored verifier blob. Verification is an AEAD open, so it is
// all-or-nothing; a wrong password and tampered vault metadata both come back
// as ErrAuthentication.
func (m *Manager) Unlock(masterPassword []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return nil
	}

	saltRow, err := m.store.GetMeta(metaSalt)
	if err != nil {
		return storeErr("reading kdf salt", err)
	}
	if saltRow == nil {
		return ErrVaultUninitialized
	}

	params := model.DefaultKDFParams()
	if paramsRow, err := m.store.GetMeta(metaKDFParams); err != nil {
		return storeErr("reading kdf params", err)
	} else if paramsRow != nil {
		if err := json.Unmarshal(paramsRow.Value, &params); err != nil {
			return fmt.Errorf("decoding kdf params: %w", err)
		}
	}

	verifierRow, err := m.store.GetMeta(metaVerifier)
	if err != nil {
		return storeErr("reading verifier", err)
	}
	if verifierRow == nil {
		return ErrAuthentication
	}

	key, err := crypto.DeriveKey(masterPassword, saltRow.Value, params)
	if err != nil {
		return err
	}

	blob := model.EncryptedBlob{Nonce: verifierRow.Nonce, Ciphertext: verifierRow.Value}
	pt, err := crypto.Decrypt(blob, key, aadVerifier)
	if err != nil {
		key.Zero()
		return ErrAuthentication
	}
	security.Wipe(pt)

	m.key = key
	m.kdf = params
	if _, err := m.store.AppendAudit(ActionVaultUnlocked, ""); err != nil {
		return storeErr("recording audit event", err)
	}
	return nil
}

// Lock wipes the session key. It always succeeds and is idempotent; locking
// a locked vault is a no-op without an audit entry.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return
	}
	m.key.Zero()
	m.key = nil
	_, _ = m.store.AppendAudit(ActionVaultLocked, "")
}

// AddCredential encrypts and stores a new credential, returning the stored
// record. The strength score is computed here, before the password is sealed,
// so listing never needs decryption.
func (m *Manager) AddCredential(site, username string, secret model.Secret, tags []string, expiresAt *time.Time) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return nil, ErrVaultLocked
	}

	id := uuid.NewString()
	blob, err := m.sealSecret(id, secret)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cred := &model.Credential{
		ID:        id,
		Site:      site,
		Username:  username,
		SecretEnc: blob,
		Tags:      model.NormalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
		Strength:  strength.Score(secret.Password),
	}
	if err := m.store.InsertCredential(cred); err != nil {
		return nil, storeErr("storing credential", err)
	}
	if _, err := m.store.AppendAudit(ActionCredentialAdded, id); err != nil {
		return nil, storeErr("recording audit event", err)
	}
	return indexRecord(cred), nil
}

// CredentialUpdate describes a partial credential edit. Nil fields keep the
// stored value; ClearExpiry removes the expiry date.
type CredentialUpdate struct {
	Site        *string
	Username    *string
	Secret      *model.Secret
	Tags        []string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// UpdateCredential applies a partial edit to a stored credential. A changed
// secret is re-encrypted under a fresh nonce; only a changed password is
// rescored and has its breach state reset to unknown, because the old verdict
// no longer applies. A notes-only edit keeps both.
func (m *Manager) UpdateCredential(id string, upd CredentialUpdate) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return nil, ErrVaultLocked
	}

	cred, err := m.store.GetCredential(id)
	if err != nil {
		return nil, storeErr("reading credential", err)
	}

	if upd.Site != nil {
		cred.Site = *upd.Site
	}
	if upd.Username != nil {
		cred.Username = *upd.Username
	}
	if upd.Tags != nil {
		cred.Tags = model.NormalizeTags(upd.Tags)
	}
	if upd.ClearExpiry {
		cred.ExpiresAt = nil
	} else if upd.ExpiresAt != nil {
		cred.ExpiresAt = upd.ExpiresAt
	}
	if upd.Secret != nil {
		old, err := m.openSecret(cred)
		if err != nil {
			return nil, err
		}
		blob, err := m.sealSecret(id, *upd.Secret)
		if err != nil {
			return nil, err
		}
		cred.SecretEnc = blob
		if upd.Secret.Password != old.Password {
			cred.Strength = strength.Score(upd.Secret.Password)
			cred.BreachState = model.BreachUnknown
		}
	}
	cred.UpdatedAt = time.Now().UTC()

	if err := m.store.UpdateCredential(cred); err != nil {
		return nil, storeErr("updating credential", err)
	}
	if _, err := m.store.AppendAudit(ActionCredentialEdited, id); err != nil {
		return nil, storeErr("recording audit event", err)
	}
	return indexRecord(cred), nil
}

// DeleteCredential removes a credential. The id stays in past audit entries;
// ids are never reused, so the trail remains unambiguous.
func (m *Manager) DeleteCredential(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return ErrVaultLocked
	}
	if _, err := m.store.DeleteCredential(id); err != nil {
		return storeErr("deleting credential", err)
	}
	if _, err := m.store.AppendAudit(ActionCredentialErased, id); err != nil {
		return storeErr("recording audit event", err)
	}
	return nil
}

// GetCredential returns the cleartext index record without its secret.
func (m *Manager) GetCredential(id string) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return nil, ErrVaultLocked
	}
	cred, err := m.store.GetCredential(id)
	if err != nil {
		return nil, storeErr("reading credential", err)
	}
	return indexRecord(cred), nil
}

// Search lists credentials matching the filter. Results carry ciphertext
// only; reading a secret is a separate, audited operation.
func (m *Manager) Search(f model.CredentialFilter) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return nil, ErrVaultLocked
	}
	creds, err := m.store.ListCredentials(f)
	if err != nil {
		return nil, storeErr("listing credentials", err)
	}
	for i := range creds {
		creds[i].SecretEnc = model.EncryptedBlob{}
	}
	return creds, nil
}

// RevealSecret decrypts and returns a credential's secret payload. Every
// reveal lands in the audit trail.
func (m *Manager) RevealSecret(id string) (model.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return model.Secret{}, ErrVaultLocked
	}

	cred, err := m.store.GetCredential(id)
	if err != nil {
		return model.Secret{}, storeErr("reading credential", err)
	}
	secret, err := m.openSecret(cred)
	if err != nil {
		return model.Secret{}, err
	}
	if _, err := m.store.AppendAudit(ActionSecretRevealed, id); err != nil {
		return model.Secret{}, storeErr("recording audit event", err)
	}
	return secret, nil
}

// CheckBreach queries the breach oracle for one credential's password and
// persists the verdict. The session mutex is released for the duration of
// the network call, so a slow oracle never blocks other vault operations.
// On oracle failure the stored state is left untouched.
func (m *Manager) CheckBreach(ctx context.Context, id string) (model.BreachState, error) {
	m.mu.Lock()
	if m.key == nil {
		m.mu.Unlock()
		return model.BreachUnknown, ErrVaultLocked
	}
	cred, err := m.store.GetCredential(id)
	if err != nil {
		m.mu.Unlock()
		return model.BreachUnknown, storeErr("reading credential", err)
	}
	secret, err := m.openSecret(cred)
	if err != nil {
		m.mu.Unlock()
		return model.BreachUnknown, err
	}
	password := secret.Password
	m.mu.Unlock()

	state, err := m.oracle.Check(ctx, password)
	if err != nil {
		return model.BreachUnknown, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.UpdateBreachState(id, state); err != nil {
		return state, storeErr("persisting breach state", err)
	}
	if _, err := m.store.AppendAudit(ActionBreachChecked, id); err != nil {
		return state, storeErr("recording audit event", err)
	}
	return state, nil
}

// Settings decrypts and returns the vault settings blob.
func (m *Manager) Settings() (model.VaultSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return model.VaultSettings{}, ErrVaultLocked
	}

	row, err := m.store.GetMeta(metaSettings)
	if err != nil {
		return model.VaultSettings{}, storeErr("reading settings", err)
	}
	if row == nil {
		return model.DefaultVaultSettings(), nil
	}
	blob := model.EncryptedBlob{Nonce: row.Nonce, Ciphertext: row.Value}
	pt, err := crypto.Decrypt(blob, m.key, aadSettings)
	if err != nil {
		return model.VaultSettings{}, err
	}
	defer security.Wipe(pt)

	var s model.VaultSettings
	if err := json.Unmarshal(pt, &s); err != nil {
		return model.VaultSettings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// UpdateSettings re-encrypts and stores the vault settings blob.
func (m *Manager) UpdateSettings(s model.VaultSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return ErrVaultLocked
	}

	pt, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	blob, err := crypto.Encrypt(pt, m.key, aadSettings)
	security.Wipe(pt)
	if err != nil {
		return err
	}
	if err := m.store.PutMeta(model.MetaRow{Name: metaSettings, Nonce: blob.Nonce, Value: blob.Ciphertext}); err != nil {
		return storeErr("writing settings", err)
	}
	return nil
}

// AuditLog returns the newest audit entries, most recent first. limit <= 0
// returns everything.
func (m *Manager) AuditLog(limit int) ([]model.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return nil, ErrVaultLocked
	}
	entries, err := m.store.GetAuditLog(limit)
	if err != nil {
		return nil, storeErr("reading audit log", err)
	}
	return entries, nil
}

// ChangeMasterPassword re-keys the vault: it verifies the old password,
// derives a new key from a fresh salt and re-encrypts every secret, the
// verifier and the settings under it. The session stays unlocked with the
// new key.
func (m *Manager) ChangeMasterPassword(oldPassword, newPassword []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return ErrVaultLocked
	}

	saltRow, err := m.store.GetMeta(metaSalt)
	if err != nil || saltRow == nil {
		return fmt.Errorf("reading kdf salt: %w", err)
	}
	oldKey, err := crypto.DeriveKey(oldPassword, saltRow.Value, m.kdf)
	if err != nil {
		return err
	}
	defer oldKey.Zero()

	verifierRow, err := m.store.GetMeta(metaVerifier)
	if err != nil || verifierRow == nil {
		return fmt.Errorf("reading verifier: %w", err)
	}
	vpt, err := crypto.Decrypt(model.EncryptedBlob{Nonce: verifierRow.Nonce, Ciphertext: verifierRow.Value}, oldKey, aadVerifier)
	if err != nil {
		return ErrAuthentication
	}
	security.Wipe(vpt)

	newSalt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	newKey, err := crypto.DeriveKey(newPassword, newSalt, m.kdf)
	if err != nil {
		return err
	}

	creds, err := m.store.ListCredentials(model.CredentialFilter{})
	if err != nil {
		newKey.Zero()
		return storeErr("listing credentials for rekey", err)
	}
	for i := range creds {
		c := &creds[i]
		pt, err := crypto.Decrypt(c.SecretEnc, m.key, []byte(c.ID))
		if err != nil {
			newKey.Zero()
			return fmt.Errorf("re-encrypting %s: %w", c.ID, err)
		}
		blob, err := crypto.Encrypt(pt, newKey, []byte(c.ID))
		security.Wipe(pt)
		if err != nil {
			newKey.Zero()
			return err
		}
		c.SecretEnc = blob
		if err := m.store.UpdateCredential(c); err != nil {
			newKey.Zero()
			return storeErr("storing re-encrypted "+c.ID, err)
		}
	}

	verifier := make([]byte, verifierSize)
	if _, err := rand.Read(verifier); err != nil {
		newKey.Zero()
		return fmt.Errorf("generating verifier: %w", err)
	}
	verifierBlob, err := crypto.Encrypt(verifier, newKey, aadVerifier)
	if err != nil {
		newKey.Zero()
		return err
	}

	settings, err := m.settingsLocked()
	if err != nil {
		newKey.Zero()
		return err
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		newKey.Zero()
		return fmt.Errorf("encoding settings: %w", err)
	}
	settingsBlob, err := crypto.Encrypt(settingsJSON, newKey, aadSettings)
	if err != nil {
		newKey.Zero()
		return err
	}

	rows := []model.MetaRow{
		{Name: metaSalt, Value: newSalt},
		{Name: metaVerifier, Nonce: verifierBlob.Nonce, Value: verifierBlob.Ciphertext},
		{Name: metaSettings, Nonce: settingsBlob.Nonce, Value: settingsBlob.Ciphertext},
	}
	for _, row := range rows {
		if err := m.store.PutMeta(row); err != nil {
			newKey.Zero()
			return storeErr("writing vault metadata", err)
		}
	}

	m.key.Zero()
	m.key = newKey
	if _, err := m.store.AppendAudit(ActionPasswordChanged, ""); err != nil {
		return storeErr("recording audit event", err)
	}
	return nil
}

// settingsLocked reads settings with the mutex already held.
func (m *Manager) settingsLocked() (model.VaultSettings, error) {
	row, err := m.store.GetMeta(metaSettings)
	if err != nil {
		return model.VaultSettings{}, storeErr("reading settings", err)
	}
	if row == nil {
		return model.DefaultVaultSettings(), nil
	}
	pt, err := crypto.Decrypt(model.EncryptedBlob{Nonce: row.Nonce, Ciphertext: row.Value}, m.key, aadSettings)
	if err != nil {
		return model.VaultSettings{}, err
	}
	defer security.Wipe(pt)
	var s model.VaultSettings
	if err := json.Unmarshal(pt, &s); err != nil {
		return model.VaultSettings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// sealSecret encodes and encrypts a secret payload, binding it to its record
// id. Caller must hold the mutex.
func (m *Manager) sealSecret(id string, secret model.Secret) (model.EncryptedBlob, error) {
	pt, err := codec.Encode(secret)
	if err != nil {
		return model.EncryptedBlob{}, err
	}
	blob, err := crypto.Encrypt(pt, m.key, []byte(id))
	security.Wipe(pt)
	if err != nil {
		return model.EncryptedBlob{}, err
	}
	return blob, nil
}

// openSecret decrypts and decodes a credential's secret payload. Caller must
// hold the mutex.
func (m *Manager) openSecret(cred *model.Credential) (model.Secret, error) {
	pt, err := crypto.Decrypt(cred.SecretEnc, m.key, []byte(cred.ID))
	if err != nil {
		return model.Secret{}, err
	}
	defer security.Wipe(pt)
	return codec.Decode(pt)
}
