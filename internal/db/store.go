// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/JacobLinCool/secret-plan/internal/model"
)

// Store defines the interface for all database operations in SecretPlan.
// This allows for multiple database backends to be implemented. The store
// only ever sees ciphertext; decryption happens above it in the vault
// manager.
type Store interface {
	// Credential rows. All writes are durable before the call returns.
	InsertCredential(c *model.Credential) error
	UpdateCredential(c *model.Credential) error
	// DeleteCredential removes the row and returns the site name for the
	// audit trail. A missing id is ErrNotFound, never a silent no-op.
	DeleteCredential(id string) (string, error)
	GetCredential(id string) (*model.Credential, error)
	ListCredentials(f model.CredentialFilter) ([]model.Credential, error)
	UpdateBreachState(id string, state model.BreachState) error

	// Settings rows (name -> blob, with an optional nonce for encrypted
	// values). Public KDF material is stored here unencrypted; it has to be
	// readable before the key exists.
	GetMeta(name string) (*model.MetaRow, error)
	PutMeta(row model.MetaRow) error

	// Audit trail. Append-only: no update or delete API exists.
	AppendAudit(action, itemID string) (int64, error)
	GetAuditLog(limit int) ([]model.AuditLogEntry, error)

	// Backup support. Exported credentials keep their ciphertext.
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
}
