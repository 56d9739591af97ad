// Package cli implements the cobra-based CLI commands for wtm.
//
// Each subcommand (create, attach, delete, list, batch-create, sync, check,
// config) is defined in its own file within this package. This file defines
// the root command that serves as the parent for all subcommands and handles
// global flags.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput is shorthand for --output json.
	jsonOutput bool

	// outputFormat selects text, json or yaml output.
	outputFormat string

	// verbose enables debug logging on stderr.
	verbose bool

	// configFile overrides the configuration file lookup.
	configFile string

	// repoDir is the directory to run in instead of the working directory.
	repoDir string
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action. It only provides
// help text and global flags; subcommands do the work.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wtm",
		Short: "Manage many git worktrees side by side",
		Long: `wtm creates, attaches and deletes git worktrees under a predictable
directory layout, and runs bulk creation and sync across many worktrees
with per-item failure reporting.

Branch names double as directory paths, so wtm refuses names that would
nest under (or above) an existing branch.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors lets Execute format errors (text or JSON).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := resolveFormat()
			return err
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (same as --output json)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatText, "Output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (default: .wtm.{yaml,yml,json,jsonc,toml} in the repository root)")
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "C", "", "Run as if wtm was started in this directory")

	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewAttachCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewBatchCreateCommand())
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// Errors are mapped to exit codes by model.ExitCodeFor: CLIError types
// carry their own code, domain errors are classified, anything else
// exits with 1. An interrupt cancels the command's context.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(int(model.ExitCodeFor(err)))
	}
}

// printError outputs an error in the appropriate format (JSON or text)
// based on the output flags. Errors always go to stderr because stdout is
// reserved for command output.
func printError(w io.Writer, err error) {
	message, detail := err.Error(), ""
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	format, _ := resolveFormat()
	if format == formatText {
		if detail != "" {
			fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
		} else {
			fmt.Fprintf(w, "Error: %s\n", message)
		}
		return
	}

	errObj := map[string]any{
		"message": message,
		"code":    int(model.ExitCodeFor(err)),
	}
	if detail != "" {
		errObj["detail"] = detail
	}
	data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
	fmt.Fprintln(w, string(data))
}
