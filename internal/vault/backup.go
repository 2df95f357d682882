// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// backupVersion is the current backup container version.
const backupVersion = 1

// ErrBadBackup is returned when a backup stream cannot be read or carries an
// unsupported version.
var ErrBadBackup = errors.New("invalid backup")

// Backup writes a zstd-compressed JSON snapshot of the vault to w. Secrets
// stay encrypted; the snapshot is exactly as sensitive as the database file
// itself, and restoring it requires the same master password.
func (m *Manager) Backup(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return ErrVaultLocked
	}

	data, err := m.store.ExportDataForBackup()
	if err != nil {
		return storeErr("exporting vault data", err)
	}
	data.Version = backupVersion

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(data); err != nil {
		_ = enc.Close()
		return fmt.Errorf("writing backup: %w", err)
	}
	return enc.Close()
}

// Restore replaces the entire vault contents with a backup snapshot. It works
// on an uninitialized or locked vault; if the vault was unlocked, the session
// key is wiped because the restored vault carries its own salt and verifier.
// A failed restore leaves the current contents untouched.
func (m *Manager) Restore(r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dec, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadBackup, err)
	}
	defer dec.Close()

	var data model.BackupData
	if err := json.NewDecoder(dec).Decode(&data); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBackup, err)
	}
	if data.Version != backupVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadBackup, data.Version)
	}

	if err := m.store.ImportDataFromBackup(&data); err != nil {
		return storeErr("importing vault data", err)
	}

	if m.key != nil {
		m.key.Zero()
		m.key = nil
	}
	if _, err := m.store.AppendAudit(ActionVaultRestored, ""); err != nil {
		return storeErr("recording audit event", err)
	}
	return nil
}
