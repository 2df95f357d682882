// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JacobLinCool/secret-plan/internal/db"
	"github.com/JacobLinCool/secret-plan/internal/i18n"
	"github.com/JacobLinCool/secret-plan/internal/logging"
	"github.com/JacobLinCool/secret-plan/internal/model"
)

// breachCmd checks stored passwords against the breach corpus.
var breachCmd = &cobra.Command{
	Use:   "breach [id]",
	Short: "Check passwords against known breaches",
	Long: `Query the breach corpus for one credential (by id) or for every stored
credential with --all. Only a 5-character hash prefix ever leaves the
machine; the comparison happens locally. Verdicts are persisted and shown
by 'list'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUnlocked(); err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")

		if all {
			return checkAllBreaches(cmd.Context())
		}
		if len(args) != 1 {
			return errors.New(i18n.T("breach.need_id"))
		}

		state, err := manager.CheckBreach(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("error.not_found", args[0]))
			}
			return fmt.Errorf("%s: %w", i18n.T("breach.error"), err)
		}
		printBreachVerdict(state)
		return nil
	},
}

func checkAllBreaches(ctx context.Context) error {
	creds, err := manager.Search(model.CredentialFilter{})
	if err != nil {
		return err
	}

	checked, compromised, failed := 0, 0, 0
	for _, c := range creds {
		state, err := manager.CheckBreach(ctx, c.ID)
		if err != nil {
			logging.Warnf("breach check for %s failed: %v", c.ID, err)
			failed++
			continue
		}
		checked++
		if state == model.BreachCompromised {
			compromised++
			fmt.Println(i18n.T("breach.compromised_item", c.String(), c.ID))
		}
	}

	fmt.Println(i18n.T("breach.all_summary", checked, compromised))
	if failed > 0 {
		fmt.Println(i18n.T("breach.all_failed", failed))
	}
	return nil
}

func printBreachVerdict(state model.BreachState) {
	if state == model.BreachCompromised {
		fmt.Println(i18n.T("breach.compromised"))
		return
	}
	fmt.Println(i18n.T("breach.safe"))
}

func init() {
	breachCmd.Flags().Bool("all", false, "Check every stored credential")
}
