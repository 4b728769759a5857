// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"modshim/internal/config"
	"modshim/internal/registry"
	"modshim/pkg/types"

	"github.com/spf13/cobra"
)

// newAliasCommand creates the `modshim alias` command tree.
func newAliasCommand(app *App) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage compat aliases for legacy module names",
		Long: `Manage compat aliases for legacy module names.

An alias binds a legacy dotted name to the exact module its canonical
name resolves to, so callers still using the old spelling observe the
same module object. Aliases are configured as pairs and only applied
when ` + registry.EnableAliasesEnvVar + ` is set to 1, true or yes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	aliasCmd.AddCommand(newAliasApplyCommand(app))
	aliasCmd.AddCommand(newAliasListCommand(app))
	aliasCmd.AddCommand(newAliasSetCommand(app))
	aliasCmd.AddCommand(newAliasRemoveCommand(app))

	return aliasCmd
}

func newAliasApplyCommand(app *App) *cobra.Command {
	var roots []string

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply configured alias pairs and report each outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if len(cfg.Aliases) == 0 {
				fmt.Fprintln(app.stdout, "No alias pairs configured.")
				return nil
			}

			_, results, err := app.buildRegistry(cfg, roots)
			if err != nil {
				return err
			}

			failed := 0
			skipped := 0
			for _, r := range results {
				switch r.Status {
				case registry.AliasApplied:
					fmt.Fprintf(app.stdout, "%s %s -> %s\n",
						SuccessStyle.Render("✓"),
						ModuleStyle.Render(r.Pair.Legacy),
						ModuleStyle.Render(r.Pair.Canonical))
				case registry.AliasAlreadyBound:
					fmt.Fprintf(app.stdout, "%s %s -> %s %s\n",
						SuccessStyle.Render("✓"),
						ModuleStyle.Render(r.Pair.Legacy),
						ModuleStyle.Render(r.Pair.Canonical),
						VerboseStyle.Render("(already bound)"))
				case registry.AliasSkipped:
					skipped++
				case registry.AliasFailed:
					failed++
					fmt.Fprintf(app.stderr, "%s %s -> %s: %v\n",
						ErrorStyle.Render("✗"),
						r.Pair.Legacy, r.Pair.Canonical, r.Err)
				}
			}

			if skipped == len(results) {
				fmt.Fprintln(app.stdout, WarningStyle.Render("Aliases are inactive: ")+
					registry.EnableAliasesEnvVar+" is not set to a truthy value.")
				fmt.Fprintln(app.stdout, VerboseStyle.Render("See 'modshim explain aliases-inactive' for details."))
				return nil
			}
			if failed > 0 {
				return &ExitError{Code: types.CodeFailure, Err: fmt.Errorf("%d alias pair(s) failed to apply", failed)}
			}
			return nil
		},
	}

	applyCmd.Flags().StringArrayVar(&roots, "root", nil,
		"additional search root (repeatable; later roots shadow earlier ones)")

	return applyCmd
}

func newAliasListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured alias pairs and the gate state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			gate, err := registry.LoadGate()
			if err != nil {
				return err
			}

			state := ErrorStyle.Render("inactive")
			if gate.CompatAliases {
				state = SuccessStyle.Render("active")
			}
			fmt.Fprintf(app.stdout, "Gate (%s=%q): %s\n",
				registry.EnableAliasesEnvVar, os.Getenv(registry.EnableAliasesEnvVar), state)

			if len(cfg.Aliases) == 0 {
				fmt.Fprintln(app.stdout, "No alias pairs configured.")
				return nil
			}
			for _, pair := range cfg.Aliases {
				fmt.Fprintf(app.stdout, "  %s -> %s\n",
					ModuleStyle.Render(pair.Legacy), ModuleStyle.Render(pair.Canonical))
			}
			return nil
		},
	}
}

func newAliasSetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <legacy> <canonical>",
		Short: "Add or update an alias pair in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			pair := registry.AliasPair{Legacy: args[0], Canonical: args[1]}
			if err := pair.Validate(); err != nil {
				return err
			}

			replaced := false
			for i, existing := range cfg.Aliases {
				if existing.Legacy == pair.Legacy {
					cfg.Aliases[i] = pair
					replaced = true
					break
				}
			}
			if !replaced {
				cfg.Aliases = append(cfg.Aliases, pair)
			}

			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s -> %s\n",
				SuccessStyle.Render("Saved"),
				ModuleStyle.Render(pair.Legacy), ModuleStyle.Render(pair.Canonical))
			return nil
		},
	}
}

func newAliasRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <legacy>",
		Short: "Remove an alias pair from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			kept := cfg.Aliases[:0]
			removed := false
			for _, existing := range cfg.Aliases {
				if existing.Legacy == args[0] {
					removed = true
					continue
				}
				kept = append(kept, existing)
			}
			if !removed {
				return fmt.Errorf("no alias configured for legacy name %q", args[0])
			}
			cfg.Aliases = kept

			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Removed"), ModuleStyle.Render(args[0]))
			return nil
		},
	}
}
