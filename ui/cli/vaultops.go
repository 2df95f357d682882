// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JacobLinCool/secret-plan/internal/i18n"
	"github.com/JacobLinCool/secret-plan/internal/security"
	"github.com/JacobLinCool/secret-plan/internal/state"
	"github.com/JacobLinCool/secret-plan/internal/vault"
)

// initCmd creates a new vault.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault",
	Long: `Initialize a new vault in the configured database. You choose a master
password; everything in the vault is encrypted with a key derived from it.
There is no recovery: losing the master password loses the vault.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := manager.State()
		if err != nil {
			return err
		}
		if st != vault.StateUninitialized {
			return errors.New(i18n.T("init.exists"))
		}

		pw, err := readNewMasterPassword(i18n.T("vault.password_prompt"))
		if err != nil {
			return err
		}
		defer security.Wipe(pw)

		if err := manager.Create(pw); err != nil {
			return err
		}
		fmt.Println(i18n.T("init.success"))
		return nil
	},
}

// passwdCmd changes the master password and re-keys the vault.
var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the master password",
	Long: `Re-key the vault: every stored secret is decrypted with the old key and
re-encrypted under a key derived from the new master password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}

		oldPw := state.PasswordCache.Get()
		if oldPw == nil {
			fmt.Print(i18n.T("passwd.old_prompt"))
			var err error
			oldPw, err = readTerminalPassword()
			if err != nil {
				return err
			}
		}
		defer security.Wipe(oldPw)

		newPw, err := readNewMasterPassword(i18n.T("passwd.new_prompt"))
		if err != nil {
			return err
		}
		defer security.Wipe(newPw)

		if err := manager.ChangeMasterPassword(oldPw, newPw); err != nil {
			if errors.Is(err, vault.ErrAuthentication) {
				return errors.New(i18n.T("unlock.failed"))
			}
			return err
		}
		fmt.Println(i18n.T("passwd.success"))
		return nil
	},
}

// auditCmd prints the audit trail.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail",
	Long: `Print the vault's append-only audit trail, newest first. The trail
records every state transition and secret access with a timestamp.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := manager.AuditLog(limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println(i18n.T("audit.empty"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, i18n.T("audit.header"))
		for _, e := range entries {
			item := e.ItemID
			if item == "" {
				item = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, formatTime(e.Timestamp), e.Action, item)
		}
		return w.Flush()
	},
}

// backupCmd writes a compressed snapshot of the vault.
var backupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Write an encrypted vault backup",
	Long: `Export the whole vault to a zstd-compressed snapshot file. Secrets stay
encrypted in the snapshot; restoring it requires the same master password.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}

		f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("creating backup file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := manager.Backup(f); err != nil {
			return err
		}
		fmt.Println(i18n.T("backup.success", args[0]))
		return nil
	},
}

// restoreCmd replaces the vault contents from a snapshot.
var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the vault from a backup",
	Long: `Replace the entire vault contents with a snapshot written by 'backup'.
The current contents are destroyed. After the restore the vault is locked;
unlock it with the master password the snapshot was created under.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			ans := promptForConfirmation(i18n.T("restore.confirm"))
			if ans != "yes" && ans != "y" {
				fmt.Println(i18n.T("delete.aborted"))
				return nil
			}
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening backup file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := manager.Restore(f); err != nil {
			return err
		}
		fmt.Println(i18n.T("restore.success", args[0]))
		return nil
	},
}

func init() {
	auditCmd.Flags().Int("limit", 50, "Maximum number of entries to show (0 for all)")
	restoreCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
