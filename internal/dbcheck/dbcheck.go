// SPDX-License-Identifier: MPL-2.0

// Package dbcheck inspects the migration database.
//
// The migrated application tracks its recordings and background jobs in a
// SQLite file managed by schema migrations. dbcheck lists the tables that
// actually exist and compares them against the expected set, so a broken or
// half-migrated database is caught before the application trips over it.
package dbcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo needed
)

// DefaultExpectedTables is the table set a fully-migrated database carries.
var DefaultExpectedTables = []string{"recordings", "jobs", "alembic_version"}

// ErrDatabaseMissing is returned when the database file does not exist.
// Opening a missing SQLite file would silently create an empty one, so the
// file is checked first.
var ErrDatabaseMissing = errors.New("database file not found")

// Report is the outcome of one check.
type Report struct {
	// Path is the inspected database file.
	Path string
	// Tables lists every table present, sorted.
	Tables []string
	// Missing lists expected tables that are absent, sorted.
	Missing []string
	// Unexpected lists present tables outside the expected set, sorted.
	// Internal sqlite_* catalog tables are never reported here.
	Unexpected []string
}

// OK reports whether the database carries exactly the expected tables.
func (r Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

// ListTables returns the user tables present in the database file, sorted.
func ListTables(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseMissing, path)
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	defer db.Close() //nolint:errcheck // read-only inspection

	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", path, err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", path, err)
	}
	return tables, nil
}

// Check lists the tables in the database file and compares them against the
// expected set (DefaultExpectedTables when expected is empty).
func Check(ctx context.Context, path string, expected []string) (Report, error) {
	if len(expected) == 0 {
		expected = DefaultExpectedTables
	}

	tables, err := ListTables(ctx, path)
	if err != nil {
		return Report{}, err
	}

	present := make(map[string]bool, len(tables))
	for _, name := range tables {
		present[name] = true
	}
	wanted := make(map[string]bool, len(expected))
	for _, name := range expected {
		wanted[name] = true
	}

	report := Report{Path: path, Tables: tables}
	for _, name := range expected {
		if !present[name] {
			report.Missing = append(report.Missing, name)
		}
	}
	for _, name := range tables {
		if !wanted[name] {
			report.Unexpected = append(report.Unexpected, name)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Unexpected)
	return report, nil
}
