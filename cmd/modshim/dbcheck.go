// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"modshim/internal/dbcheck"
	"modshim/internal/issue"
	"modshim/pkg/types"

	"github.com/spf13/cobra"
)

// newDbcheckCommand creates the `modshim dbcheck` command.
func newDbcheckCommand(app *App) *cobra.Command {
	var expected []string

	dbcheckCmd := &cobra.Command{
		Use:   "dbcheck [database]",
		Short: "Check the migration database for the expected tables",
		Long: `Check the migration database for the expected tables.

The application tracks recordings and background jobs in a SQLite file
managed by schema migrations. dbcheck lists the tables actually present
and compares them against the expected set, so a missing or
half-migrated database is caught before the application trips over it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			path := cfg.Database.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no database path given (pass one or set database.path in the config)")
			}

			exp := cfg.Database.ExpectedTables
			if len(expected) > 0 {
				exp = expected
			}

			report, err := dbcheck.Check(cmd.Context(), path, exp)
			if err != nil {
				if errors.Is(err, dbcheck.ErrDatabaseMissing) {
					return &ExitError{Code: types.CodeFailure, Err: issue.NewErrorContext().
						WithOperation("open database").
						WithResource(path).
						WithSuggestion("Run the schema migrations to create the database").
						WithSuggestion("See 'modshim explain database-missing'").
						Wrap(err).
						BuildError()}
				}
				return err
			}

			for _, table := range report.Tables {
				marker := SuccessStyle.Render("✓")
				fmt.Fprintf(app.stdout, "%s %s\n", marker, table)
			}
			for _, table := range report.Missing {
				fmt.Fprintf(app.stdout, "%s %s %s\n",
					ErrorStyle.Render("✗"), table, VerboseStyle.Render("(missing)"))
			}
			for _, table := range report.Unexpected {
				fmt.Fprintf(app.stdout, "%s %s %s\n",
					WarningStyle.Render("?"), table, VerboseStyle.Render("(unexpected)"))
			}

			if !report.OK() {
				return &ExitError{Code: types.CodeFailure, Err: fmt.Errorf(
					"database %s: %d missing and %d unexpected table(s)",
					path, len(report.Missing), len(report.Unexpected))}
			}

			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" database carries all expected tables")
			return nil
		},
	}

	dbcheckCmd.Flags().StringArrayVar(&expected, "expect", nil,
		"expected table name (repeatable, replaces the default set)")

	return dbcheckCmd
}
