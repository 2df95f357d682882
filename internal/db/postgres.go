// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// PostgresStore is the PostgreSQL-backed Store, for teams sharing one vault
// database over the network.
type PostgresStore struct {
	bun *bun.DB
}

func (s *PostgresStore) InsertCredential(c *model.Credential) error {
	return insertCredentialBun(context.Background(), s.bun, c)
}

func (s *PostgresStore) UpdateCredential(c *model.Credential) error {
	return updateCredentialBun(context.Background(), s.bun, c)
}

func (s *PostgresStore) DeleteCredential(id string) (string, error) {
	return deleteCredentialBun(context.Background(), s.bun, id)
}

func (s *PostgresStore) GetCredential(id string) (*model.Credential, error) {
	return getCredentialBun(context.Background(), s.bun, id)
}

func (s *PostgresStore) ListCredentials(f model.CredentialFilter) ([]model.Credential, error) {
	return listCredentialsBun(context.Background(), s.bun, f)
}

func (s *PostgresStore) UpdateBreachState(id string, state model.BreachState) error {
	return updateBreachStateBun(context.Background(), s.bun, id, state)
}

func (s *PostgresStore) GetMeta(name string) (*model.MetaRow, error) {
	return getMetaBun(context.Background(), s.bun, name)
}

func (s *PostgresStore) PutMeta(row model.MetaRow) error {
	return putMetaBun(context.Background(), s.bun, row)
}

func (s *PostgresStore) AppendAudit(action, itemID string) (int64, error) {
	return appendAuditBun(context.Background(), s.bun, action, itemID)
}

func (s *PostgresStore) GetAuditLog(limit int) ([]model.AuditLogEntry, error) {
	return getAuditLogBun(context.Background(), s.bun, limit)
}

func (s *PostgresStore) ExportDataForBackup() (*model.BackupData, error) {
	return exportDataForBackupBun(context.Background(), s.bun)
}

func (s *PostgresStore) ImportDataFromBackup(backup *model.BackupData) error {
	return importDataFromBackupBun(context.Background(), s.bun, backup, false)
}
