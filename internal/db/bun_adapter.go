// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// Row models for Bun. Timestamps are persisted as unix seconds so the same
// schema works across SQLite, Postgres and MySQL without driver-specific
// time handling.

// CredentialModel is the Bun representation of a vault_items row.
type CredentialModel struct {
	bun.BaseModel `bun:"table:vault_items"`

	UUID        string `bun:"uuid,pk"`
	Site        string `bun:"site,notnull"`
	Username    string `bun:"username,notnull"`
	SecretNonce []byte `bun:"secret_nonce,notnull"`
	SecretCT    []byte `bun:"secret_ct,notnull"`
	Tags        string `bun:"tags,notnull"`
	CreatedAt   int64  `bun:"created_at,notnull"`
	UpdatedAt   int64  `bun:"updated_at,notnull"`
	ExpiresAt   *int64 `bun:"expires_at"`
	Strength    int    `bun:"strength,notnull"`
	BreachState int    `bun:"breach_state,notnull"`
}

// MetaModel is the Bun representation of a meta row.
type MetaModel struct {
	bun.BaseModel `bun:"table:meta"`

	Name  string `bun:"name,pk"`
	Nonce []byte `bun:"nonce"`
	Value []byte `bun:"value,notnull"`
}

// AuditLogModel is the Bun representation of an audit_log row.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Timestamp int64  `bun:"timestamp,notnull"`
	Action    string `bun:"action,notnull"`
	ItemUUID  string `bun:"item_uuid"`
}

const tagSeparator = ","

func credentialToModel(c *model.Credential) *CredentialModel {
	m := &CredentialModel{
		UUID:        c.ID,
		Site:        c.Site,
		Username:    c.Username,
		SecretNonce: c.SecretEnc.Nonce,
		SecretCT:    c.SecretEnc.Ciphertext,
		Tags:        strings.Join(c.Tags, tagSeparator),
		CreatedAt:   c.CreatedAt.Unix(),
		UpdatedAt:   c.UpdatedAt.Unix(),
		Strength:    c.Strength,
		BreachState: int(c.BreachState),
	}
	if c.ExpiresAt != nil {
		v := c.ExpiresAt.Unix()
		m.ExpiresAt = &v
	}
	return m
}

func modelToCredential(m *CredentialModel) model.Credential {
	c := model.Credential{
		ID:       m.UUID,
		Site:     m.Site,
		Username: m.Username,
		SecretEnc: model.EncryptedBlob{
			Nonce:      m.SecretNonce,
			Ciphertext: m.SecretCT,
		},
		CreatedAt:   time.Unix(m.CreatedAt, 0).UTC(),
		UpdatedAt:   time.Unix(m.UpdatedAt, 0).UTC(),
		Strength:    m.Strength,
		BreachState: model.BreachState(m.BreachState),
	}
	if m.Tags != "" {
		c.Tags = strings.Split(m.Tags, tagSeparator)
	}
	if m.ExpiresAt != nil {
		t := time.Unix(*m.ExpiresAt, 0).UTC()
		c.ExpiresAt = &t
	}
	return c
}

// --- Shared Bun helpers. The per-dialect stores delegate here so the query
// logic exists exactly once. ---

func insertCredentialBun(ctx context.Context, idb bun.IDB, c *model.Credential) error {
	_, err := idb.NewInsert().Model(credentialToModel(c)).Exec(ctx)
	return MapDBError(err)
}

func updateCredentialBun(ctx context.Context, idb bun.IDB, c *model.Credential) error {
	res, err := idb.NewUpdate().
		Model(credentialToModel(c)).
		WherePK().
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteCredentialBun(ctx context.Context, idb bun.IDB, id string) (string, error) {
	row := new(CredentialModel)
	err := idb.NewSelect().
		Model(row).
		Column("site").
		Where("uuid = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", MapDBError(err)
	}
	_, err = idb.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("uuid = ?", id).
		Exec(ctx)
	if err != nil {
		return "", MapDBError(err)
	}
	return row.Site, nil
}

func getCredentialBun(ctx context.Context, idb bun.IDB, id string) (*model.Credential, error) {
	row := new(CredentialModel)
	err := idb.NewSelect().Model(row).Where("uuid = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, MapDBError(err)
	}
	c := modelToCredential(row)
	return &c, nil
}

// listCredentialsBun applies the filter's search, strength and breach clauses
// in SQL and the tag membership check in Go. Tags are a joined string column,
// and a LIKE match there would confuse "db" with "rdb".
func listCredentialsBun(ctx context.Context, idb bun.IDB, f model.CredentialFilter) ([]model.Credential, error) {
	var rows []CredentialModel
	q := idb.NewSelect().Model(&rows).Order("site ASC", "username ASC")
	if f.SearchTerm != "" {
		term := "%" + strings.ToLower(f.SearchTerm) + "%"
		q = q.Where("(LOWER(site) LIKE ? OR LOWER(username) LIKE ?)", term, term)
	}
	if f.MinStrength != nil {
		q = q.Where("strength >= ?", *f.MinStrength)
	}
	if f.BreachState != nil {
		q = q.Where("breach_state = ?", int(*f.BreachState))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}

	out := make([]model.Credential, 0, len(rows))
	for i := range rows {
		c := modelToCredential(&rows[i])
		if f.Tag != "" && !hasTag(c.Tags, f.Tag) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func hasTag(tags []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func updateBreachStateBun(ctx context.Context, idb bun.IDB, id string, state model.BreachState) error {
	res, err := idb.NewUpdate().
		Model((*CredentialModel)(nil)).
		Set("breach_state = ?", int(state)).
		Where("uuid = ?", id).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func getMetaBun(ctx context.Context, idb bun.IDB, name string) (*model.MetaRow, error) {
	row := new(MetaModel)
	err := idb.NewSelect().Model(row).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, MapDBError(err)
	}
	return &model.MetaRow{Name: row.Name, Nonce: row.Nonce, Value: row.Value}, nil
}

func putMetaBun(ctx context.Context, idb bun.IDB, row model.MetaRow) error {
	m := &MetaModel{Name: row.Name, Nonce: row.Nonce, Value: row.Value}
	_, err := idb.NewInsert().
		Model(m).
		On("CONFLICT (name) DO UPDATE").
		Set("nonce = EXCLUDED.nonce").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return MapDBError(err)
}

// putMetaMySQL is the MySQL variant of putMetaBun; MySQL has no
// ON CONFLICT clause and uses ON DUPLICATE KEY UPDATE instead.
func putMetaMySQL(ctx context.Context, idb bun.IDB, row model.MetaRow) error {
	m := &MetaModel{Name: row.Name, Nonce: row.Nonce, Value: row.Value}
	_, err := idb.NewInsert().
		Model(m).
		On("DUPLICATE KEY UPDATE").
		Set("nonce = VALUES(nonce)").
		Set("value = VALUES(value)").
		Exec(ctx)
	return MapDBError(err)
}

func appendAuditBun(ctx context.Context, idb bun.IDB, action, itemID string) (int64, error) {
	row := &AuditLogModel{
		Timestamp: time.Now().Unix(),
		Action:    action,
		ItemUUID:  itemID,
	}
	_, err := idb.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		return 0, MapDBError(err)
	}
	return row.ID, nil
}

func getAuditLogBun(ctx context.Context, idb bun.IDB, limit int) ([]model.AuditLogEntry, error) {
	var rows []AuditLogModel
	q := idb.NewSelect().Model(&rows).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AuditLogEntry{
			ID:        r.ID,
			Timestamp: time.Unix(r.Timestamp, 0).UTC(),
			Action:    r.Action,
			ItemID:    r.ItemUUID,
		})
	}
	return out, nil
}

func exportDataForBackupBun(ctx context.Context, idb bun.IDB) (*model.BackupData, error) {
	backup := &model.BackupData{
		Version:    1,
		ExportedAt: time.Now().UTC(),
	}

	var metas []MetaModel
	if err := idb.NewSelect().Model(&metas).Order("name ASC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	for _, m := range metas {
		backup.Meta = append(backup.Meta, model.MetaRow{Name: m.Name, Nonce: m.Nonce, Value: m.Value})
	}

	creds, err := listCredentialsBun(ctx, idb, model.CredentialFilter{})
	if err != nil {
		return nil, err
	}
	backup.Credentials = creds

	var audits []AuditLogModel
	if err := idb.NewSelect().Model(&audits).Order("id ASC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	for _, a := range audits {
		backup.AuditLog = append(backup.AuditLog, model.AuditLogEntry{
			ID:        a.ID,
			Timestamp: time.Unix(a.Timestamp, 0).UTC(),
			Action:    a.Action,
			ItemID:    a.ItemUUID,
		})
	}

	return backup, nil
}

// importDataFromBackupBun replaces the current contents with the backup's.
// Runs in one transaction so a failed restore leaves the vault untouched.
func importDataFromBackupBun(ctx context.Context, db *bun.DB, backup *model.BackupData, mysql bool) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range []any{(*AuditLogModel)(nil), (*CredentialModel)(nil), (*MetaModel)(nil)} {
			if _, err := tx.NewDelete().Model(m).Where("1 = 1").Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}

		for _, row := range backup.Meta {
			var err error
			if mysql {
				err = putMetaMySQL(ctx, tx, row)
			} else {
				err = putMetaBun(ctx, tx, row)
			}
			if err != nil {
				return err
			}
		}

		for i := range backup.Credentials {
			if err := insertCredentialBun(ctx, tx, &backup.Credentials[i]); err != nil {
				return err
			}
		}

		for _, e := range backup.AuditLog {
			row := &AuditLogModel{
				ID:        e.ID,
				Timestamp: e.Timestamp.Unix(),
				Action:    e.Action,
				ItemUUID:  e.ItemID,
			}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}

		return nil
	})
}
