// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for SecretPlan using the
// Cobra library. It defines the root command, subcommands (like init, add,
// reveal, breach), flags, and the main entry point for execution.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/JacobLinCool/secret-plan/buildvars"
	"github.com/JacobLinCool/secret-plan/internal/breach"
	"github.com/JacobLinCool/secret-plan/internal/config"
	"github.com/JacobLinCool/secret-plan/internal/db"
	"github.com/JacobLinCool/secret-plan/internal/i18n"
	"github.com/JacobLinCool/secret-plan/internal/logging"
	"github.com/JacobLinCool/secret-plan/internal/security"
	"github.com/JacobLinCool/secret-plan/internal/state"
	"github.com/JacobLinCool/secret-plan/internal/vault"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var verbose bool
var showVersionFlag bool

var appConfig config.Config

// manager is the process-wide vault session, created by setupDefaultServices.
var manager *vault.Manager

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	// Load optional config file argument from cli
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type":          "sqlite",
		"database.dsn":           "./secretplan.db",
		"language":               "en",
		"breach.base_url":        breach.DefaultBaseURL,
		"breach.timeout_seconds": 10,
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A "file not found" error is expected on first run, so we handle it
	// specifically and persist a default config for later inspection.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("Warning: could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Post-process config to ensure critical values are not empty, falling
	// back to defaults. This handles configs with empty values for these keys.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}
	if appConfig.Breach.BaseURL == "" {
		appConfig.Breach.BaseURL = defaults["breach.base_url"].(string)
	}
	if appConfig.Breach.TimeoutSeconds <= 0 {
		appConfig.Breach.TimeoutSeconds = defaults["breach.timeout_seconds"].(int)
	}

	if verbose || appConfig.Debug {
		logging.SetDebug(true)
		db.SetDebug(true)
	}

	// Initialize i18n
	i18n.Init(appConfig.Language)

	// Open the store and build the vault session, unless a test wired one in.
	if manager == nil {
		if !db.IsInitialized() {
			if err := db.InitDB(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
				return errors.New(i18n.T("config.error_init_db", err))
			}
		}
		oracle := breach.NewClient(
			breach.WithBaseURL(appConfig.Breach.BaseURL),
			breach.WithHTTPClient(newBreachHTTPClient(appConfig.Breach.TimeoutSeconds)),
		)
		manager = vault.New(db.Default(), oracle)
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	defer state.PasswordCache.Clear()

	rootCmd := NewRootCmd()
	return rootCmd.Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be called
	// multiple times in tests which creates a new root but uses package-level
	// subcommands). pflag will panic on duplicate flag definitions, so check
	// first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./secretplan.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secretplan",
		Short: "SecretPlan is a local encrypted credential vault.",
		Long: `SecretPlan stores your passwords, notes and TOTP seeds in a local
database, encrypted with a key derived from a single master password.
Secrets are sealed with authenticated encryption bound to their record,
and every reveal is written to an append-only audit trail.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				v, c, d := resolveBuildVersion(nil)
				compositeVersion := v
				if c != "" && c != "dev" {
					compositeVersion = compositeVersion + " (" + c + ")"
				}
				if d != "" {
					compositeVersion = compositeVersion + " built: " + d
				}
				fmt.Printf("%s\n", compositeVersion)
				os.Exit(0)
			}
			return setupDefaultServices(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	v, c, d := resolveBuildVersion(nil)
	compositeVersion := v
	if c != "" && c != "dev" {
		compositeVersion = compositeVersion + " (" + c + ")"
	}
	if d != "" {
		compositeVersion = compositeVersion + " built: " + d
	}
	cmd.Version = compositeVersion

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets debug logging)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `CLI language ("en", "de")`)
	applyDefaultFlags(cmd)

	applyDefaultFlags(initCmd)
	applyDefaultFlags(addCmd)
	applyDefaultFlags(listCmd)
	applyDefaultFlags(revealCmd)
	applyDefaultFlags(updateCmd)
	applyDefaultFlags(deleteCmd)
	applyDefaultFlags(breachCmd)
	applyDefaultFlags(auditCmd)
	applyDefaultFlags(backupCmd)
	applyDefaultFlags(restoreCmd)
	applyDefaultFlags(passwdCmd)

	// Add a lightweight `version` subcommand so users and CI can run
	// `secretplan version`.
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			resolvedVersion, resolvedCommit, resolvedDate := resolveBuildVersion(nil)
			fmt.Printf("version: %s\n", resolvedVersion)
			fmt.Printf("commit: %s\n", resolvedCommit)
			if resolvedDate != "" {
				fmt.Printf("built: %s\n", resolvedDate)
			}
		},
	}

	cmd.AddCommand(
		initCmd,
		addCmd,
		listCmd,
		revealCmd,
		updateCmd,
		deleteCmd,
		breachCmd,
		auditCmd,
		generateCmd,
		backupCmd,
		restoreCmd,
		passwdCmd,
		versionCmd,
	)

	return cmd
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if len(resolvedCommit) > 12 {
		resolvedCommit = resolvedCommit[:12]
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

// readMasterPassword resolves the master password from, in order, the
// SECRETPLAN_MASTER_PASSWORD environment variable, the in-process mailbox,
// and finally an interactive prompt. The caller must wipe the returned slice.
func readMasterPassword(promptID string) ([]byte, error) {
	if env := os.Getenv("SECRETPLAN_MASTER_PASSWORD"); env != "" {
		return []byte(env), nil
	}
	if cached := state.PasswordCache.Get(); cached != nil {
		return cached, nil
	}

	fmt.Print(i18n.T(promptID))
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return nil, errors.New(i18n.T("vault.password_empty"))
	}
	return pw, nil
}

// readTerminalPassword reads one password from the terminal without echo.
func readTerminalPassword() ([]byte, error) {
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return nil, errors.New(i18n.T("vault.password_empty"))
	}
	return pw, nil
}

// readNewMasterPassword prompts twice and insists the entries match.
func readNewMasterPassword(prompt string) ([]byte, error) {
	if env := os.Getenv("SECRETPLAN_MASTER_PASSWORD"); env != "" {
		return []byte(env), nil
	}

	fmt.Print(prompt)
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(first) == 0 {
		return nil, errors.New(i18n.T("vault.password_empty"))
	}

	fmt.Print(i18n.T("vault.password_confirm_prompt"))
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		security.Wipe(first)
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if string(first) != string(second) {
		security.Wipe(first)
		security.Wipe(second)
		return nil, errors.New(i18n.T("vault.password_mismatch"))
	}
	security.Wipe(second)
	return first, nil
}

// requireUnlocked makes sure the session is unlocked, prompting for the
// master password if needed.
func requireUnlocked() error {
	st, err := manager.State()
	if err != nil {
		return err
	}
	switch st {
	case vault.StateUnlocked:
		return nil
	case vault.StateUninitialized:
		return errors.New(i18n.T("vault.not_initialized"))
	}

	pw, err := readMasterPassword("vault.password_prompt")
	if err != nil {
		return err
	}
	defer security.Wipe(pw)

	if err := manager.Unlock(pw); err != nil {
		if errors.Is(err, vault.ErrAuthentication) {
			return errors.New(i18n.T("unlock.failed"))
		}
		return err
	}
	// Park the password in the mailbox so commands that need it again in
	// this invocation (like passwd) do not prompt twice.
	state.PasswordCache.Set(pw)
	return nil
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimSpace(line))
}

func newBreachHTTPClient(timeoutSeconds int) *http.Client {
	return &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

// formatTime renders timestamps for table output.
func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
