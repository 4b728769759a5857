// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"time"

	"modshim/internal/issue"
	"modshim/internal/ledger"
	"modshim/internal/probe"
	"modshim/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newRevalidateCommand creates the `modshim revalidate` command.
func newRevalidateCommand(app *App) *cobra.Command {
	var (
		roots   []string
		timeout time.Duration
		dryRun  bool
	)

	revalidateCmd := &cobra.Command{
		Use:   "revalidate <ledger.csv>",
		Short: "Re-verify the rewritten imports tracked in the migration ledger",
		Long: `Re-verify the rewritten imports tracked in the migration ledger.

Each unverified row is probed in a subprocess: the modules named by the
row's import statement (or derived from its file path) must all import
cleanly before the row's validated column receives the success marker.
Rows already carrying an affirmative marker are skipped without
probing. The ledger file is rewritten only when at least one row
actually changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			led, err := ledger.Load(args[0])
			if err != nil {
				if errors.Is(err, ledger.ErrNotFound) {
					return &ExitError{Code: types.CodeFailure, Err: issue.NewErrorContext().
						WithOperation("load ledger").
						WithResource(args[0]).
						WithSuggestion("Check the ledger path").
						WithSuggestion("See 'modshim explain ledger-not-found'").
						Wrap(err).
						BuildError()}
				}
				return err
			}

			searchRoots := app.buildResolver(cfg, roots).Roots()

			probeTimeout := timeout
			if probeTimeout <= 0 {
				probeTimeout = time.Duration(cfg.Probe.TimeoutSeconds) * time.Second
			}

			logger := log.NewWithOptions(app.stderr, log.Options{
				ReportTimestamp: false,
			})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}

			r := &ledger.Revalidator{
				Probe: ledger.ExecProbe(probe.ExecOptions{
					Command:    cfg.Probe.Command,
					Timeout:    probeTimeout,
					PathEnvVar: cfg.Probe.PathEnvVar,
					Roots:      searchRoots,
				}),
				Roots:  searchRoots,
				Logger: logger,
			}

			summary, err := r.Run(cmd.Context(), led)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.stdout, "%d row(s): %s updated, %d skipped, %s failed\n",
				summary.Rows,
				SuccessStyle.Render(fmt.Sprintf("%d", summary.Updated)),
				summary.Skipped,
				ErrorStyle.Render(fmt.Sprintf("%d", summary.Failed)),
			)

			if led.Dirty() {
				if dryRun {
					fmt.Fprintln(app.stdout, WarningStyle.Render("dry run: ")+"ledger not written")
				} else if err := led.Save(); err != nil {
					return err
				}
			}

			if summary.Failed > 0 {
				return &ExitError{Code: types.CodeFailure, Err: fmt.Errorf("%d row(s) failed revalidation", summary.Failed)}
			}
			return nil
		},
	}

	revalidateCmd.Flags().StringArrayVar(&roots, "root", nil,
		"additional search root (repeatable; later roots shadow earlier ones)")
	revalidateCmd.Flags().DurationVar(&timeout, "timeout", 0,
		"per-probe subprocess timeout (default from config, 60s)")
	revalidateCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"probe and report without rewriting the ledger")

	return revalidateCmd
}
