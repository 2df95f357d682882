// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/JacobLinCool/secret-plan/internal/generator"
	"github.com/JacobLinCool/secret-plan/internal/i18n"
	"github.com/JacobLinCool/secret-plan/internal/strength"
)

// generateCmd produces a random password without touching the vault.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random password",
	Long: `Generate a password from a cryptographically secure random source.
This command works without a vault and never stores anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := generator.DefaultOptions()
		if cmd.Flags().Changed("length") {
			opts.Length, _ = cmd.Flags().GetInt("length")
		}
		if noSymbols, _ := cmd.Flags().GetBool("no-symbols"); noSymbols {
			opts.Symbols = false
		}
		if noDigits, _ := cmd.Flags().GetBool("no-digits"); noDigits {
			opts.Digits = false
		}
		if similar, _ := cmd.Flags().GetBool("allow-similar"); similar {
			opts.ExcludeSimilar = false
		}

		pw, err := generator.Generate(opts)
		if err != nil {
			return err
		}

		if copyFlag, _ := cmd.Flags().GetBool("copy"); copyFlag {
			if err := clipboard.WriteAll(pw); err != nil {
				return fmt.Errorf("copying to clipboard: %w", err)
			}
			fmt.Println(i18n.T("generate.copied"))
		} else {
			fmt.Println(pw)
		}

		if show, _ := cmd.Flags().GetBool("score"); show {
			fmt.Println(i18n.T("generate.score", strength.Score(pw)))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntP("length", "l", 20, "Password length")
	generateCmd.Flags().Bool("no-symbols", false, "Exclude symbol characters")
	generateCmd.Flags().Bool("no-digits", false, "Exclude digits")
	generateCmd.Flags().Bool("allow-similar", false, `Allow easily confused characters ("Il1O0")`)
	generateCmd.Flags().BoolP("copy", "c", false, "Copy to the clipboard instead of printing")
	generateCmd.Flags().Bool("score", false, "Also print the strength score")
}
