// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRootsCommand creates the `modshim roots` command.
func newRootsCommand(app *App) *cobra.Command {
	var (
		roots       []string
		listModules bool
	)

	rootsCmd := &cobra.Command{
		Use:   "roots",
		Short: "Show the effective search roots in precedence order",
		Long: `Show the effective search roots in precedence order.

Roots come from the config file, the ` + "`MODSHIM_SEARCH_ROOTS`" + ` environment
variable and --root flags. The list is printed highest precedence
first: a module found under an earlier root shadows same-named modules
under later ones. Roots that do not exist on disk are dropped and never
appear here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			res := app.buildResolver(cfg, roots)
			effective := res.Roots()
			if len(effective) == 0 {
				fmt.Fprintln(app.stdout, WarningStyle.Render("No search roots configured."))
				fmt.Fprintln(app.stdout, VerboseStyle.Render("See 'modshim explain no-search-roots' for details."))
				return nil
			}

			for i, root := range effective {
				fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render(fmt.Sprintf("%d.", i+1)), root)
			}

			if !listModules {
				return nil
			}

			modules := res.ListModules()
			fmt.Fprintf(app.stdout, "\n%s\n", TitleStyle.Render(fmt.Sprintf("%d module(s) resolvable", len(modules))))
			for _, m := range modules {
				kind := "module"
				if m.IsPackage {
					kind = "package"
				}
				fmt.Fprintf(app.stdout, "%s %s %s\n",
					ModuleStyle.Render(m.Name),
					VerboseStyle.Render("("+kind+")"),
					m.Path)
			}
			return nil
		},
	}

	rootsCmd.Flags().StringArrayVar(&roots, "root", nil,
		"additional search root (repeatable; later roots shadow earlier ones)")
	rootsCmd.Flags().BoolVar(&listModules, "list-modules", false,
		"also enumerate every module resolvable through the roots")

	return rootsCmd
}
