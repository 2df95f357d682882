// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

func newTestDB(t *testing.T) (Store, string) {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return Default(), dsn
}

func testCredential(site, username string) *model.Credential {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Credential{
		ID:       uuid.NewString(),
		Site:     site,
		Username: username,
		SecretEnc: model.EncryptedBlob{
			Nonce:      []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
			Ciphertext: []byte("not-really-ciphertext"),
		},
		Tags:      []string{"work"},
		CreatedAt: now,
		UpdatedAt: now,
		Strength:  70,
	}
}

func TestInitDB_Migrations_Applied(t *testing.T) {
	_, dsn := newTestDB(t)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, table := range []string{"meta", "vault_items", "audit_log", "schema_migrations"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist after migrations: %v", table, err)
		}
	}
}

func TestInitDB_Migrations_Idempotent(t *testing.T) {
	_, dsn := newTestDB(t)

	// A second InitDB against the same DSN must not re-apply migrations.
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

func TestInitDB_UnsupportedType(t *testing.T) {
	if err := InitDB("oracle", "whatever"); err == nil {
		t.Fatalf("expected error for unsupported database type")
	}
}

func TestCredential_InsertGetRoundTrip(t *testing.T) {
	s, _ := newTestDB(t)

	c := testCredential("example.com", "alice")
	exp := time.Now().UTC().Add(90 * 24 * time.Hour).Truncate(time.Second)
	c.ExpiresAt = &exp
	if err := s.InsertCredential(c); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}

	got, err := s.GetCredential(c.ID)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.Site != c.Site || got.Username != c.Username {
		t.Errorf("got %s/%s, want %s/%s", got.Site, got.Username, c.Site, c.Username)
	}
	if string(got.SecretEnc.Ciphertext) != string(c.SecretEnc.Ciphertext) {
		t.Errorf("ciphertext did not survive the round trip")
	}
	if string(got.SecretEnc.Nonce) != string(c.SecretEnc.Nonce) {
		t.Errorf("nonce did not survive the round trip")
	}
	if len(got.Tags) != 1 || got.Tags[0] != "work" {
		t.Errorf("tags = %v, want [work]", got.Tags)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(exp) {
		t.Errorf("expires_at = %v, want %v", got.ExpiresAt, exp)
	}
	if got.Strength != 70 {
		t.Errorf("strength = %d, want 70", got.Strength)
	}
	if got.BreachState != model.BreachUnknown {
		t.Errorf("new credential breach state = %v, want unknown", got.BreachState)
	}
}

func TestCredential_InsertDuplicateID(t *testing.T) {
	s, _ := newTestDB(t)

	c := testCredential("example.com", "alice")
	if err := s.InsertCredential(c); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}
	if err := s.InsertCredential(c); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate insert: got %v, want ErrDuplicate", err)
	}
}

func TestCredential_GetMissing(t *testing.T) {
	s, _ := newTestDB(t)

	if _, err := s.GetCredential(uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCredential_Update(t *testing.T) {
	s, _ := newTestDB(t)

	c := testCredential("example.com", "alice")
	if err := s.InsertCredential(c); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}

	c.Username = "alice@example.com"
	c.SecretEnc.Ciphertext = []byte("fresh-ciphertext")
	c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	if err := s.UpdateCredential(c); err != nil {
		t.Fatalf("UpdateCredential failed: %v", err)
	}

	got, err := s.GetCredential(c.ID)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.Username != "alice@example.com" {
		t.Errorf("username = %s after update", got.Username)
	}
	if string(got.SecretEnc.Ciphertext) != "fresh-ciphertext" {
		t.Errorf("ciphertext not updated")
	}
}

func TestCredential_UpdateMissing(t *testing.T) {
	s, _ := newTestDB(t)

	c := testCredential("nope.example", "ghost")
	if err := s.UpdateCredential(c); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCredential_Delete(t *testing.T) {
	s, _ := newTestDB(t)

	c := testCredential("example.com", "alice")
	if err := s.InsertCredential(c); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}

	site, err := s.DeleteCredential(c.ID)
	if err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}
	if site != "example.com" {
		t.Errorf("deleted site = %s, want example.com", site)
	}

	if _, err := s.GetCredential(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}

	// Deleting again reports the id as gone, not a silent success.
	if _, err := s.DeleteCredential(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestUpdateBreachState(t *testing.T) {
	s, _ := newTestDB(t)

	c := testCredential("example.com", "alice")
	if err := s.InsertCredential(c); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}

	if err := s.UpdateBreachState(c.ID, model.BreachCompromised); err != nil {
		t.Fatalf("UpdateBreachState failed: %v", err)
	}
	got, err := s.GetCredential(c.ID)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.BreachState != model.BreachCompromised {
		t.Errorf("breach state = %v, want compromised", got.BreachState)
	}

	if err := s.UpdateBreachState(uuid.NewString(), model.BreachSafe); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestMeta_PutGet(t *testing.T) {
	s, _ := newTestDB(t)

	got, err := s.GetMeta("kdf_salt")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil row for absent meta name, got %+v", got)
	}

	row := model.MetaRow{Name: "kdf_salt", Value: []byte("0123456789abcdef")}
	if err := s.PutMeta(row); err != nil {
		t.Fatalf("PutMeta failed: %v", err)
	}

	got, err = s.GetMeta("kdf_salt")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if got == nil || string(got.Value) != "0123456789abcdef" {
		t.Fatalf("meta round trip failed: %+v", got)
	}

	// Upsert replaces.
	row.Value = []byte("fedcba9876543210")
	row.Nonce = []byte{9, 9, 9}
	if err := s.PutMeta(row); err != nil {
		t.Fatalf("PutMeta upsert failed: %v", err)
	}
	got, err = s.GetMeta("kdf_salt")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if string(got.Value) != "fedcba9876543210" || len(got.Nonce) != 3 {
		t.Fatalf("upsert did not replace row: %+v", got)
	}
}

func TestAudit_AppendAndRetrieve(t *testing.T) {
	s, _ := newTestDB(t)

	id1, err := s.AppendAudit("vault_created", "")
	if err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}
	itemID := uuid.NewString()
	id2, err := s.AppendAudit("credential_added", itemID)
	if err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("audit ids not increasing: %d then %d", id1, id2)
	}

	entries, err := s.GetAuditLog(10)
	if err != nil {
		t.Fatalf("GetAuditLog failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Action != "credential_added" || entries[0].ItemID != itemID {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].Action != "vault_created" {
		t.Errorf("oldest entry = %+v", entries[1])
	}

	limited, err := s.GetAuditLog(1)
	if err != nil {
		t.Fatalf("s.GetAuditLog(1) failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != id2 {
		t.Errorf("limit=1 returned %+v", limited)
	}
}

func TestBackup_ExportImportRoundTrip(t *testing.T) {
	s, _ := newTestDB(t)

	if err := s.PutMeta(model.MetaRow{Name: "kdf_salt", Value: []byte("salt")}); err != nil {
		t.Fatalf("PutMeta failed: %v", err)
	}
	c := testCredential("example.com", "alice")
	if err := s.InsertCredential(c); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}
	if _, err := s.AppendAudit("credential_added", c.ID); err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}

	backup, err := s.ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup failed: %v", err)
	}
	if backup.Version != 1 {
		t.Errorf("backup version = %d, want 1", backup.Version)
	}
	if len(backup.Meta) != 1 || len(backup.Credentials) != 1 || len(backup.AuditLog) != 1 {
		t.Fatalf("backup contents: meta=%d creds=%d audit=%d", len(backup.Meta), len(backup.Credentials), len(backup.AuditLog))
	}

	// Mutate the live data, then restore the snapshot.
	if _, err := s.DeleteCredential(c.ID); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}
	extra := testCredential("other.example", "bob")
	if err := s.InsertCredential(extra); err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}

	if err := s.ImportDataFromBackup(backup); err != nil {
		t.Fatalf("ImportDataFromBackup failed: %v", err)
	}

	creds, err := s.ListCredentials(model.CredentialFilter{})
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(creds) != 1 || creds[0].ID != c.ID {
		t.Fatalf("restored credentials = %+v", creds)
	}
	meta, err := s.GetMeta("kdf_salt")
	if err != nil || meta == nil || string(meta.Value) != "salt" {
		t.Fatalf("restored meta = %+v, err = %v", meta, err)
	}
	audit, err := s.GetAuditLog(0)
	if err != nil || len(audit) != 1 {
		t.Fatalf("restored audit = %+v, err = %v", audit, err)
	}
}
