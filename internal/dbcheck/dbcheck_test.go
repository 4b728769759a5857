// SPDX-License-Identifier: MPL-2.0

package dbcheck

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// createDB makes a SQLite file containing the given empty tables.
func createDB(t *testing.T, tables ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	// sql.Open is lazy; force a connection so the file exists even when no
	// tables are created.
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	for _, name := range tables {
		if _, err := db.Exec(`CREATE TABLE "` + name + `" (id INTEGER PRIMARY KEY)`); err != nil {
			t.Fatalf("create table %s: %v", name, err)
		}
	}
	return path
}

func TestListTables_MissingFile(t *testing.T) {
	_, err := ListTables(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	if !errors.Is(err, ErrDatabaseMissing) {
		t.Errorf("ListTables() error = %v, want ErrDatabaseMissing", err)
	}
}

func TestListTables_Sorted(t *testing.T) {
	path := createDB(t, "jobs", "alembic_version", "recordings")

	tables, err := ListTables(context.Background(), path)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}

	want := []string{"alembic_version", "jobs", "recordings"}
	if diff := cmp.Diff(want, tables); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_FullyMigrated(t *testing.T) {
	path := createDB(t, "recordings", "jobs", "alembic_version")

	report, err := Check(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.OK() {
		t.Errorf("Report = %+v, want OK", report)
	}
}

func TestCheck_MissingAndUnexpected(t *testing.T) {
	path := createDB(t, "recordings", "scratch")

	report, err := Check(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if report.OK() {
		t.Fatal("Report.OK() = true, want false")
	}
	if diff := cmp.Diff([]string{"alembic_version", "jobs"}, report.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"scratch"}, report.Unexpected); diff != "" {
		t.Errorf("Unexpected mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_CustomExpectedSet(t *testing.T) {
	path := createDB(t, "sessions")

	report, err := Check(context.Background(), path, []string{"sessions"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.OK() {
		t.Errorf("Report = %+v, want OK with custom expected set", report)
	}
}

func TestCheck_EmptyDatabase(t *testing.T) {
	path := createDB(t)

	report, err := Check(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(report.Missing) != len(DefaultExpectedTables) {
		t.Errorf("Missing = %v, want all expected tables", report.Missing)
	}
}
