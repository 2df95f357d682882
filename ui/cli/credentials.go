// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JacobLinCool/secret-plan/internal/db"
	"github.com/JacobLinCool/secret-plan/internal/generator"
	"github.com/JacobLinCool/secret-plan/internal/i18n"
	"github.com/JacobLinCool/secret-plan/internal/model"
	"github.com/JacobLinCool/secret-plan/internal/vault"
)

// addCmd stores a new credential in the vault.
var addCmd = &cobra.Command{
	Use:   "add <site> <username>",
	Short: "Add a new credential",
	Long: `Encrypt and store a new credential. The secret password is read from an
interactive prompt (or generated with --generate) and never appears in the
process arguments or shell history.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}
		site, username := args[0], args[1]

		tags, _ := cmd.Flags().GetStringSlice("tag")
		notes, _ := cmd.Flags().GetString("notes")
		totp, _ := cmd.Flags().GetString("totp")
		expiresIn, _ := cmd.Flags().GetInt("expires-days")
		generate, _ := cmd.Flags().GetBool("generate")

		var password string
		if generate {
			pw, err := generator.Generate(generator.DefaultOptions())
			if err != nil {
				return err
			}
			password = pw
		} else {
			fmt.Print(i18n.T("add.secret_prompt"))
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			if len(pw) == 0 {
				return errors.New(i18n.T("add.secret_empty"))
			}
			password = string(pw)
		}

		var expiresAt *time.Time
		if expiresIn > 0 {
			t := time.Now().UTC().AddDate(0, 0, expiresIn)
			expiresAt = &t
		}

		secret := model.Secret{Password: password, Notes: notes, TOTPSeed: totp}
		cred, err := manager.AddCredential(site, username, secret, tags, expiresAt)
		if err != nil {
			return err
		}

		fmt.Println(i18n.T("add.success", cred.ID, cred.String()))
		if generate {
			if err := clipboard.WriteAll(password); err == nil {
				fmt.Println(i18n.T("generate.copied"))
			} else {
				// Headless environments have no clipboard; show it once.
				fmt.Println(i18n.T("add.generated_password", password))
			}
		}
		return nil
	},
}

// listCmd lists credentials, optionally filtered.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials",
	Long: `Display stored credentials in table format. Secrets stay encrypted;
use 'reveal' to read one. Filters combine with AND semantics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}

		filter := model.CredentialFilter{}
		filter.SearchTerm, _ = cmd.Flags().GetString("search")
		filter.Tag, _ = cmd.Flags().GetString("tag")
		if cmd.Flags().Changed("min-strength") {
			min, _ := cmd.Flags().GetInt("min-strength")
			filter.MinStrength = &min
		}
		if breachFlag, _ := cmd.Flags().GetString("breach"); breachFlag != "" {
			st, err := model.ParseBreachState(breachFlag)
			if err != nil {
				return err
			}
			filter.BreachState = &st
		}

		creds, err := manager.Search(filter)
		if err != nil {
			return err
		}
		if len(creds) == 0 {
			fmt.Println(i18n.T("list.empty"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, i18n.T("list.header"))
		for _, c := range creds {
			expiry := "-"
			if c.ExpiresAt != nil {
				expiry = formatTime(*c.ExpiresAt)
			}
			tags := "-"
			if len(c.Tags) > 0 {
				tags = fmt.Sprintf("%v", c.Tags)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				c.ID, c.Site, c.Username, c.Strength, c.BreachState, expiry, tags)
		}
		return w.Flush()
	},
}

// revealCmd decrypts and prints (or copies) one credential's secret.
var revealCmd = &cobra.Command{
	Use:   "reveal <id>",
	Short: "Reveal a credential's secret",
	Long: `Decrypt one credential and print its secret payload. With --copy the
password goes to the clipboard instead of the terminal. Every reveal is
recorded in the audit trail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}
		copyFlag, _ := cmd.Flags().GetBool("copy")

		secret, err := manager.RevealSecret(args[0])
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("error.not_found", args[0]))
			}
			return err
		}

		if copyFlag {
			if err := clipboard.WriteAll(secret.Password); err != nil {
				return fmt.Errorf("copying to clipboard: %w", err)
			}
			fmt.Println(i18n.T("reveal.copied"))
		} else {
			fmt.Printf("password: %s\n", secret.Password)
		}
		if secret.Notes != "" {
			fmt.Printf("notes: %s\n", secret.Notes)
		}
		if secret.TOTPSeed != "" {
			fmt.Printf("totp seed: %s\n", secret.TOTPSeed)
		}
		for k, v := range secret.CustomFields {
			fmt.Printf("%s: %s\n", k, v)
		}
		return nil
	},
}

// updateCmd edits a stored credential.
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a credential",
	Long: `Edit a credential's site, username, tags or expiry. With --password the
secret is re-encrypted under a fresh nonce and its breach state resets to
unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}

		upd := vault.CredentialUpdate{}
		if cmd.Flags().Changed("site") {
			v, _ := cmd.Flags().GetString("site")
			upd.Site = &v
		}
		if cmd.Flags().Changed("username") {
			v, _ := cmd.Flags().GetString("username")
			upd.Username = &v
		}
		if cmd.Flags().Changed("tag") {
			upd.Tags, _ = cmd.Flags().GetStringSlice("tag")
		}
		if cmd.Flags().Changed("expires-days") {
			days, _ := cmd.Flags().GetInt("expires-days")
			if days <= 0 {
				upd.ClearExpiry = true
			} else {
				t := time.Now().UTC().AddDate(0, 0, days)
				upd.ExpiresAt = &t
			}
		}
		if changePw, _ := cmd.Flags().GetBool("password"); changePw {
			// Keep the existing notes and TOTP seed; only the password changes.
			current, err := manager.RevealSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Print(i18n.T("add.secret_prompt"))
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			if len(pw) == 0 {
				return errors.New(i18n.T("add.secret_empty"))
			}
			current.Password = string(pw)
			upd.Secret = &current
		}

		cred, err := manager.UpdateCredential(args[0], upd)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("error.not_found", args[0]))
			}
			return err
		}
		fmt.Println(i18n.T("update.success", cred.String()))
		return nil
	},
}

// deleteCmd removes a credential after confirmation.
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			ans := promptForConfirmation(i18n.T("delete.confirm", args[0]))
			if ans != "yes" && ans != "y" {
				fmt.Println(i18n.T("delete.aborted"))
				return nil
			}
		}

		if err := manager.DeleteCredential(args[0]); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("error.not_found", args[0]))
			}
			return err
		}
		fmt.Println(i18n.T("delete.success", args[0]))
		return nil
	},
}

func init() {
	addCmd.Flags().StringSlice("tag", nil, "Tag for the credential (repeatable)")
	addCmd.Flags().String("notes", "", "Free-form notes stored encrypted")
	addCmd.Flags().String("totp", "", "TOTP seed stored encrypted")
	addCmd.Flags().Int("expires-days", 0, "Expire the credential after this many days")
	addCmd.Flags().Bool("generate", false, "Generate a random password instead of prompting")

	listCmd.Flags().String("search", "", "Case-insensitive substring match on site or username")
	listCmd.Flags().String("tag", "", "Only credentials carrying this tag")
	listCmd.Flags().Int("min-strength", 0, "Minimum strength score (0-100)")
	listCmd.Flags().String("breach", "", `Filter by breach state ("unknown", "safe", "compromised")`)

	revealCmd.Flags().BoolP("copy", "c", false, "Copy the password to the clipboard instead of printing it")

	updateCmd.Flags().String("site", "", "New site")
	updateCmd.Flags().String("username", "", "New username")
	updateCmd.Flags().StringSlice("tag", nil, "Replace the tag set (repeatable)")
	updateCmd.Flags().Int("expires-days", 0, "New expiry in days from now (0 clears it)")
	updateCmd.Flags().Bool("password", false, "Prompt for a new password")

	deleteCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
