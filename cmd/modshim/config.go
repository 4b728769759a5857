// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"modshim/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `modshim config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modshim configuration",
		Long: `Manage modshim configuration.

Configuration is stored in:
  - Linux: ~/.config/modshim/config.cue
  - macOS: ~/Library/Application Support/modshim/config.cue
  - Windows: %APPDATA%\modshim\config.cue

A config.cue in the current directory is used when no file exists in
the config directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return err
			}

			source := "built-in defaults"
			if path != "" {
				source = path
			}
			fmt.Fprintln(app.stdout, SubtitleStyle.Render("# source: "+source))
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintln(app.stdout, path)
				return nil
			}

			// No file in use: print where one would be created.
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, VerboseStyle.Render(
				filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)+" (not created yet)"))
			return nil
		},
	})

	return cfgCmd
}
