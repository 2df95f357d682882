// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// MySQLStore is the MySQL/MariaDB-backed Store. Upserts differ from the
// other dialects, everything else shares the Bun helpers.
type MySQLStore struct {
	bun *bun.DB
}

func (s *MySQLStore) InsertCredential(c *model.Credential) error {
	return insertCredentialBun(context.Background(), s.bun, c)
}

func (s *MySQLStore) UpdateCredential(c *model.Credential) error {
	return updateCredentialBun(context.Background(), s.bun, c)
}

func (s *MySQLStore) DeleteCredential(id string) (string, error) {
	return deleteCredentialBun(context.Background(), s.bun, id)
}

func (s *MySQLStore) GetCredential(id string) (*model.Credential, error) {
	return getCredentialBun(context.Background(), s.bun, id)
}

func (s *MySQLStore) ListCredentials(f model.CredentialFilter) ([]model.Credential, error) {
	return listCredentialsBun(context.Background(), s.bun, f)
}

func (s *MySQLStore) UpdateBreachState(id string, state model.BreachState) error {
	return updateBreachStateBun(context.Background(), s.bun, id, state)
}

func (s *MySQLStore) GetMeta(name string) (*model.MetaRow, error) {
	return getMetaBun(context.Background(), s.bun, name)
}

func (s *MySQLStore) PutMeta(row model.MetaRow) error {
	return putMetaMySQL(context.Background(), s.bun, row)
}

func (s *MySQLStore) AppendAudit(action, itemID string) (int64, error) {
	return appendAuditBun(context.Background(), s.bun, action, itemID)
}

func (s *MySQLStore) GetAuditLog(limit int) ([]model.AuditLogEntry, error) {
	return getAuditLogBun(context.Background(), s.bun, limit)
}

func (s *MySQLStore) ExportDataForBackup() (*model.BackupData, error) {
	return exportDataForBackupBun(context.Background(), s.bun)
}

func (s *MySQLStore) ImportDataFromBackup(backup *model.BackupData) error {
	return importDataFromBackupBun(context.Background(), s.bun, backup, true)
}
