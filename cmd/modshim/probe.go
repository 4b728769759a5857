// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"modshim/internal/probe"
	"modshim/pkg/types"

	"github.com/spf13/cobra"
)

// newProbeCommand creates the `modshim probe` command.
func newProbeCommand(app *App) *cobra.Command {
	var (
		roots   []string
		static  bool
		command string
		timeout time.Duration
	)

	probeCmd := &cobra.Command{
		Use:   "probe <module>",
		Short: "Check that a module imports",
		Long: `Check that a dotted module name imports cleanly.

By default the probe runs a real import in a subprocess shell with the
search roots exported on the interpreter's path variable, so it exercises
the same machinery the application would. With --static the name is only
resolved through the registry, without spawning an interpreter.

Exit status is 0 when the import succeeds and 2 when it fails, so the
probe can gate CI steps and shell scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			var result probe.Result
			if static {
				reg, _, regErr := app.buildRegistry(cfg, roots)
				if regErr != nil {
					return regErr
				}
				result = probe.Static(reg, name)
			} else {
				opts := probe.ExecOptions{
					Command:    command,
					Timeout:    timeout,
					PathEnvVar: cfg.Probe.PathEnvVar,
					Roots:      app.buildResolver(cfg, roots).Roots(),
				}
				if opts.Command == "" {
					opts.Command = cfg.Probe.Command
				}
				if opts.Timeout <= 0 {
					opts.Timeout = time.Duration(cfg.Probe.TimeoutSeconds) * time.Second
				}
				if verbose {
					opts.Stdout = app.stdout
					opts.Stderr = app.stderr
				}
				result = probe.Exec(cmd.Context(), name, opts)
			}

			if result.OK() {
				fmt.Fprintf(app.stdout, "%s %s %s\n",
					SuccessStyle.Render("✓"),
					ModuleStyle.Render(name),
					VerboseStyle.Render(result.Duration.Round(time.Millisecond).String()),
				)
				if result.Path != "" {
					fmt.Fprintf(app.stdout, "  %s\n", result.Path)
				}
				return nil
			}

			fmt.Fprintf(app.stderr, "%s %s: %v\n", ErrorStyle.Render("✗"), name, result.Err)
			return &ExitError{Code: types.CodeImportFailed, Err: result.Err}
		},
	}

	probeCmd.Flags().StringArrayVar(&roots, "root", nil,
		"additional search root (repeatable; later roots shadow earlier ones)")
	probeCmd.Flags().BoolVar(&static, "static", false,
		"resolve through the registry instead of running an interpreter")
	probeCmd.Flags().StringVar(&command, "command", "",
		"shell snippet to run instead of the default import command")
	probeCmd.Flags().DurationVar(&timeout, "timeout", 0,
		"subprocess timeout (default from config, 60s)")

	return probeCmd
}
