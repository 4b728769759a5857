// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"sort"

	"modshim/internal/issue"

	"github.com/spf13/cobra"
)

// explainTopics maps CLI slugs to the issue pages they render. Other parts
// of the CLI reference these slugs in their suggestions ("See 'modshim
// explain ledger-not-found'"), so a slug, once shipped, stays stable.
var explainTopics = map[string]issue.Id{
	"config-load-failed": issue.ConfigLoadFailedId,
	"no-search-roots":    issue.NoSearchRootsId,
	"module-not-found":   issue.ModuleNotFoundId,
	"aliases-inactive":   issue.AliasesInactiveId,
	"ledger-not-found":   issue.LedgerNotFoundId,
	"probe-timeout":      issue.ProbeTimeoutId,
	"lint-findings":      issue.LintFindingsId,
	"database-missing":   issue.DatabaseMissingId,
}

// newExplainCommand creates the `modshim explain` command.
func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [topic]",
		Short: "Show a detailed page about a known failure mode",
		Long: `Show a detailed page about a known failure mode.

Error messages reference these pages by topic. Run without arguments to
list the available topics.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: sortedTopics(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Available topics:"))
				for _, slug := range sortedTopics() {
					fmt.Fprintf(app.stdout, "  %s\n", ModuleStyle.Render(slug))
				}
				return nil
			}

			id, ok := explainTopics[args[0]]
			if !ok {
				return fmt.Errorf("unknown topic %q (run 'modshim explain' to list topics)", args[0])
			}

			page, err := issue.Get(id).Render("")
			if err != nil {
				return fmt.Errorf("render topic %q: %w", args[0], err)
			}
			fmt.Fprint(app.stdout, page)
			return nil
		},
	}
}

func sortedTopics() []string {
	slugs := make([]string, 0, len(explainTopics))
	for slug := range explainTopics {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
