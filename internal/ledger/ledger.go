// SPDX-License-Identifier: MPL-2.0

// Package ledger reads, revalidates and rewrites the migration ledger.
//
// The ledger is a delimited spreadsheet export tracking which rewritten
// import statements have been verified against the migrated tree. Rows keep
// their original order and untouched columns byte-for-byte; the file is only
// rewritten when at least one row actually changed.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modshim/internal/resolver"
)

const (
	// ColNewImport records the rewritten import statement for the row.
	ColNewImport = "new_import"
	// ColValidated records the verification status marker.
	ColValidated = "validated"
	// ColFilePath records the source file the import belongs to.
	ColFilePath = "file_path"

	// AffirmativePrefix marks a row as verified. Any validated value
	// starting with it is skipped on later runs.
	AffirmativePrefix = "OK"

	// Marker is written into the validated column on success.
	Marker = "OK (modshim)"
)

// ErrNotFound is returned by Load when the ledger file does not exist.
var ErrNotFound = errors.New("ledger file not found")

// Ledger is a fully-loaded delimited file: header, rows and the delimiter
// the file was written with.
type Ledger struct {
	// Path is where the ledger was loaded from and will be saved to.
	Path string
	// Delimiter is the detected field separator.
	Delimiter rune
	// Header holds the column names in file order.
	Header []string
	// Rows holds the data rows in file order.
	Rows [][]string

	colIndex map[string]int
	dirty    bool
}

// Load reads and parses a ledger file. The delimiter is sniffed from the
// header line: semicolon wins when present, otherwise comma. A missing file
// returns ErrNotFound (wrapped) so callers can map it to an exit code.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	delimiter := sniffDelimiter(data)

	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = delimiter
	r.FieldsPerRecord = -1 // tolerate ragged rows, they are preserved as-is

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ledger %s is empty", path)
	}

	l := &Ledger{
		Path:      path,
		Delimiter: delimiter,
		Header:    records[0],
		Rows:      records[1:],
		colIndex:  make(map[string]int, len(records[0])),
	}
	for i, name := range l.Header {
		l.colIndex[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{ColNewImport, ColValidated, ColFilePath} {
		if _, ok := l.colIndex[required]; !ok {
			return nil, fmt.Errorf("ledger %s has no %q column", path, required)
		}
	}
	return l, nil
}

// sniffDelimiter picks the field separator from the first line. Semicolon
// exports are the common case for this ledger; comma is the fallback.
func sniffDelimiter(data []byte) rune {
	header := string(data)
	if idx := strings.IndexByte(header, '\n'); idx >= 0 {
		header = header[:idx]
	}
	if strings.ContainsRune(header, ';') {
		return ';'
	}
	return ','
}

// Column returns the index of the named column.
func (l *Ledger) Column(name string) (int, bool) {
	idx, ok := l.colIndex[name]
	return idx, ok
}

// Value returns the trimmed cell value at (row, column name). Out-of-range
// cells on ragged rows read as empty.
func (l *Ledger) Value(row int, col string) string {
	idx, ok := l.colIndex[col]
	if !ok || row < 0 || row >= len(l.Rows) || idx >= len(l.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(l.Rows[row][idx])
}

// SetValue writes a cell and marks the ledger dirty if the value changed.
// Ragged rows are padded out to the column first.
func (l *Ledger) SetValue(row int, col, value string) {
	idx, ok := l.colIndex[col]
	if !ok || row < 0 || row >= len(l.Rows) {
		return
	}
	for len(l.Rows[row]) <= idx {
		l.Rows[row] = append(l.Rows[row], "")
	}
	if l.Rows[row][idx] != value {
		l.Rows[row][idx] = value
		l.dirty = true
	}
}

// Dirty reports whether any cell changed since Load.
func (l *Ledger) Dirty() bool { return l.dirty }

// Validated reports whether the row already carries an affirmative marker.
func (l *Ledger) Validated(row int) bool {
	return strings.HasPrefix(l.Value(row, ColValidated), AffirmativePrefix)
}

// Save rewrites the ledger with the original delimiter. Call only when
// Dirty reports true; Save itself does not check.
func (l *Ledger) Save() error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = l.Delimiter

	if err := w.Write(l.Header); err != nil {
		return fmt.Errorf("encode ledger header: %w", err)
	}
	for _, row := range l.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encode ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	if err := os.WriteFile(l.Path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	l.dirty = false
	return nil
}

// ModulesForRow derives the module names a row must be verified against:
// parsed from the recorded import statement when one is present, otherwise
// synthesized from the recorded file path.
func (l *Ledger) ModulesForRow(row int, roots []string) []string {
	if stmt := l.Value(row, ColNewImport); stmt != "" {
		if modules := ModulesFromImport(stmt); len(modules) > 0 {
			return modules
		}
	}
	if path := l.Value(row, ColFilePath); path != "" {
		if module, ok := ModuleFromFilePath(path, roots); ok {
			return []string{module}
		}
	}
	return nil
}

// ModulesFromImport extracts module names from a recorded import statement.
// "from a.b import c, d" yields a.b plus a.b.c and a.b.d (the imported names
// may themselves be sub-modules); "import a.b as x" yields a.b. Names that
// are not valid dotted identifiers are dropped.
func ModulesFromImport(stmt string) []string {
	stmt = strings.TrimSpace(stmt)

	var modules []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if !resolver.ValidName(name) {
			return
		}
		for _, existing := range modules {
			if existing == name {
				return
			}
		}
		modules = append(modules, name)
	}

	switch {
	case strings.HasPrefix(stmt, "from "):
		rest := strings.TrimPrefix(stmt, "from ")
		base, imported, ok := strings.Cut(rest, " import ")
		if !ok {
			return nil
		}
		base = strings.TrimSpace(base)
		add(base)
		for _, name := range strings.Split(imported, ",") {
			name = strings.TrimSpace(name)
			if stripped, _, found := strings.Cut(name, " as "); found {
				name = strings.TrimSpace(stripped)
			}
			if name == "" || name == "*" {
				continue
			}
			add(base + "." + name)
		}
	case strings.HasPrefix(stmt, "import "):
		rest := strings.TrimPrefix(stmt, "import ")
		for _, name := range strings.Split(rest, ",") {
			name = strings.TrimSpace(name)
			if stripped, _, found := strings.Cut(name, " as "); found {
				name = strings.TrimSpace(stripped)
			}
			add(name)
		}
	}
	return modules
}

// ModuleFromFilePath synthesizes a dotted module name from a source file
// path: the longest matching root prefix is stripped, the extension dropped,
// separators become dots, and a trailing __init__ names its directory.
func ModuleFromFilePath(path string, roots []string) (string, bool) {
	normalized := filepath.ToSlash(strings.ReplaceAll(path, `\`, "/"))
	if !strings.HasSuffix(normalized, ".py") {
		return "", false
	}

	rel := normalized
	longest := 0
	for _, root := range roots {
		prefix := filepath.ToSlash(root)
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		if strings.HasPrefix(normalized, prefix) && len(prefix) > longest {
			longest = len(prefix)
			rel = normalized[len(prefix):]
		}
	}

	rel = strings.TrimSuffix(rel, ".py")
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.Trim(rel, "/")

	name := strings.ReplaceAll(rel, "/", ".")
	name = strings.TrimSuffix(name, ".__init__")
	if name == "__init__" || !resolver.ValidName(name) {
		return "", false
	}
	return name, true
}
