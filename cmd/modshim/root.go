// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modshim.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"modshim/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
)

// newRootCommand builds the base command and attaches all subcommands.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modshim",
		Short: "Import-path shims for a migrating Python codebase",
		Long: TitleStyle.Render("modshim") + SubtitleStyle.Render(" - import-path shims for a migrating Python codebase") + `

modshim keeps dotted-module imports working while a source tree is being
reorganized. It resolves module names against an ordered set of search
roots, binds legacy names to their canonical modules behind an opt-in
environment gate, probes imports in a real interpreter, lints for
forbidden legacy imports, and revalidates the migration ledger.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Configure search_roots (or pass --root)
  2. Check a module resolves: modshim resolve voice_recorder.storage
  3. Probe it in the interpreter: modshim probe voice_recorder.storage

` + SubtitleStyle.Render("Examples:") + `
  modshim resolve a.b.c          Resolve a dotted name to a file
  modshim probe a.b.c            Import the module in a subprocess
  modshim alias apply            Apply configured compat aliases
  modshim lint src               Scan for forbidden legacy imports
  modshim revalidate ledger.csv  Re-verify the migration ledger
  modshim dbcheck app.db         Check the migration database`,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/modshim/config.cue)")

	rootCmd.AddCommand(newResolveCommand(app))
	rootCmd.AddCommand(newProbeCommand(app))
	rootCmd.AddCommand(newAliasCommand(app))
	rootCmd.AddCommand(newLintCommand(app))
	rootCmd.AddCommand(newRevalidateCommand(app))
	rootCmd.AddCommand(newDbcheckCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newRootsCommand(app))
	rootCmd.AddCommand(newExplainCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and the command tree and runs the CLI.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// Use fang.Execute for enhanced Cobra styling.
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
