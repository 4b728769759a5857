// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"modshim/internal/lint"
	"modshim/internal/watch"
	"modshim/pkg/types"

	"github.com/spf13/cobra"
)

// newLintCommand creates the `modshim lint` command.
func newLintCommand(app *App) *cobra.Command {
	var (
		excludes       []string
		patterns       []string
		baselinePath   string
		updateBaseline bool
		watchMode      bool
	)

	lintCmd := &cobra.Command{
		Use:   "lint [root]",
		Short: "Scan a source tree for forbidden legacy imports",
		Long: `Scan a source tree for forbidden legacy imports.

Every source file under the root is checked line by line against the
forbidden patterns (by default, imports from the legacy flat 'models'
layout). Findings are printed as 'path:line: text' with the path
relative to the scanned root, and the command exits 1 when any finding
remains after baseline filtering.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			// CLI flags replace the configured values when given.
			effPatterns := cfg.Lint.Patterns
			if len(patterns) > 0 {
				effPatterns = patterns
			}
			effExcludes := append(append([]string{}, cfg.Lint.Exclude...), excludes...)
			effBaseline := cfg.Lint.Baseline
			if baselinePath != "" {
				effBaseline = baselinePath
			}

			runScan := func(ctx context.Context) error {
				return runLint(app, root, effPatterns, effExcludes, effBaseline, updateBaseline)
			}

			if !watchMode {
				return runScan(cmd.Context())
			}

			// Watch mode: run once up front, then re-scan on changes. Scan
			// failures are reported per run and do not stop the watcher.
			if err := runScan(cmd.Context()); err != nil {
				fmt.Fprintln(app.stderr, formatErrorForDisplay(err, verbose))
			}

			w, err := watch.New(watch.Config{
				BaseDir:  root,
				Patterns: []string{"**/*.py"},
				Ignore:   effExcludes,
				Stdout:   app.stdout,
				Stderr:   app.stderr,
				OnChange: func(ctx context.Context, changed []string) error {
					fmt.Fprintf(app.stdout, "%s %d file(s) changed, re-scanning\n",
						SubtitleStyle.Render("watch:"), len(changed))
					if err := runScan(ctx); err != nil {
						fmt.Fprintln(app.stderr, formatErrorForDisplay(err, verbose))
					}
					return nil
				},
			})
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	lintCmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"glob pattern to skip (repeatable, merged with configured excludes)")
	lintCmd.Flags().StringArrayVar(&patterns, "pattern", nil,
		"forbidden-line regex (repeatable, replaces the default pattern)")
	lintCmd.Flags().StringVar(&baselinePath, "baseline", "",
		"TOML file of accepted findings to filter out")
	lintCmd.Flags().BoolVar(&updateBaseline, "update-baseline", false,
		"write current findings to the baseline file instead of failing")
	lintCmd.Flags().BoolVar(&watchMode, "watch", false,
		"re-scan whenever source files change")

	return lintCmd
}

// runLint performs one scan and renders the outcome. Findings after baseline
// filtering yield an ExitError with code 1.
func runLint(app *App, root string, patterns, excludes []string, baselinePath string, updateBaseline bool) error {
	scanner, err := lint.NewScanner(root, patterns, excludes)
	if err != nil {
		return err
	}

	findings, err := scanner.Run()
	if err != nil {
		return err
	}

	if baselinePath != "" && updateBaseline {
		if err := lint.WriteBaseline(baselinePath, findings); err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s %d finding(s) written to %s\n",
			SuccessStyle.Render("✓"), len(findings), baselinePath)
		return nil
	}

	if baselinePath != "" {
		baseline, err := lint.LoadBaseline(baselinePath)
		if err != nil {
			return err
		}
		findings = baseline.Filter(findings)
	}

	if len(findings) == 0 {
		fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" no forbidden imports found")
		return nil
	}

	for _, f := range findings {
		fmt.Fprintln(app.stdout, f.String())
	}
	return &ExitError{Code: types.CodeFailure, Err: fmt.Errorf("%d forbidden import(s) found", len(findings))}
}
