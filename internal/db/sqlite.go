// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// SqliteStore is the SQLite-backed Store. SQLite is the default backend; a
// vault is a single file next to the config.
type SqliteStore struct {
	bun *bun.DB
}

func (s *SqliteStore) InsertCredential(c *model.Credential) error {
	return insertCredentialBun(context.Background(), s.bun, c)
}

func (s *SqliteStore) UpdateCredential(c *model.Credential) error {
	return updateCredentialBun(context.Background(), s.bun, c)
}

func (s *SqliteStore) DeleteCredential(id string) (string, error) {
	return deleteCredentialBun(context.Background(), s.bun, id)
}

func (s *SqliteStore) GetCredential(id string) (*model.Credential, error) {
	return getCredentialBun(context.Background(), s.bun, id)
}

func (s *SqliteStore) ListCredentials(f model.CredentialFilter) ([]model.Credential, error) {
	return listCredentialsBun(context.Background(), s.bun, f)
}

func (s *SqliteStore) UpdateBreachState(id string, state model.BreachState) error {
	return updateBreachStateBun(context.Background(), s.bun, id, state)
}

func (s *SqliteStore) GetMeta(name string) (*model.MetaRow, error) {
	return getMetaBun(context.Background(), s.bun, name)
}

func (s *SqliteStore) PutMeta(row model.MetaRow) error {
	return putMetaBun(context.Background(), s.bun, row)
}

func (s *SqliteStore) AppendAudit(action, itemID string) (int64, error) {
	return appendAuditBun(context.Background(), s.bun, action, itemID)
}

func (s *SqliteStore) GetAuditLog(limit int) ([]model.AuditLogEntry, error) {
	return getAuditLogBun(context.Background(), s.bun, limit)
}

func (s *SqliteStore) ExportDataForBackup() (*model.BackupData, error) {
	return exportDataForBackupBun(context.Background(), s.bun)
}

func (s *SqliteStore) ImportDataFromBackup(backup *model.BackupData) error {
	return importDataFromBackupBun(context.Background(), s.bun, backup, false)
}
