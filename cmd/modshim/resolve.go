// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"modshim/internal/resolver"
	"modshim/pkg/types"

	"github.com/spf13/cobra"
)

// newResolveCommand creates the `modshim resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	var roots []string

	resolveCmd := &cobra.Command{
		Use:   "resolve <module>...",
		Short: "Resolve dotted module names to files",
		Long: `Resolve dotted module names against the configured search roots.

For each name the roots are tried in precedence order, looking first for
a leaf source file (a/b/c.py) and then for a package marker
(a/b/c/__init__.py). The first hit wins; roots added later shadow roots
added earlier.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			res := app.buildResolver(cfg, roots)

			failed := 0
			for _, name := range args {
				m, err := res.Resolve(name)
				if err != nil {
					failed++
					var nf *resolver.NotFoundError
					if errors.As(err, &nf) {
						fmt.Fprintf(app.stderr, "%s %s: %v\n", ErrorStyle.Render("✗"), name, err)
						if verbose {
							for _, root := range nf.Roots {
								fmt.Fprintf(app.stderr, "  %s\n", VerboseStyle.Render("searched "+root))
							}
						}
						continue
					}
					fmt.Fprintf(app.stderr, "%s %s: %v\n", ErrorStyle.Render("✗"), name, err)
					continue
				}

				kind := "module"
				if m.IsPackage {
					kind = "package"
				}
				fmt.Fprintf(app.stdout, "%s %s %s %s\n",
					SuccessStyle.Render("✓"),
					ModuleStyle.Render(m.Name),
					VerboseStyle.Render("("+kind+")"),
					m.Path,
				)
			}

			if failed > 0 {
				return &ExitError{Code: types.CodeFailure, Err: fmt.Errorf("%d of %d module(s) did not resolve", failed, len(args))}
			}
			return nil
		},
	}

	resolveCmd.Flags().StringArrayVar(&roots, "root", nil,
		"additional search root (repeatable; later roots shadow earlier ones)")

	return resolveCmd
}
