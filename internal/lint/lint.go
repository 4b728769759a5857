// SPDX-License-Identifier: MPL-2.0

// Package lint scans a source tree for forbidden legacy import spellings.
//
// During a layout migration the old spelling keeps working through the
// compat aliases, which makes it easy to reintroduce by accident. The
// scanner is the CI gate that catches that: any line matching a forbidden
// pattern is a finding, and findings fail the build unless baselined.
package lint

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern flags the legacy bare-package import spelling that the
// migration replaces with fully-qualified names.
const DefaultPattern = `^\s*from\s+models(\.[A-Za-z_][A-Za-z0-9_]*)*\s+import\s+`

// defaultExcludes are always skipped, on top of user-supplied excludes.
var defaultExcludes = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/node_modules/**",
	"**/.venv/**",
	"**/venv/**",
}

// maxLineLength guards the line scanner against minified or binary files.
const maxLineLength = 1 << 20

type (
	// Finding is one forbidden-import occurrence.
	Finding struct {
		// Path is the file path relative to the scanned root, slash-separated.
		Path string
		// Line is the 1-based line number.
		Line int
		// Text is the matched line with surrounding whitespace trimmed.
		Text string
		// Pattern is the regex that matched.
		Pattern string
	}

	// Scanner walks a root directory and matches lines against forbidden
	// patterns. Construct with NewScanner so patterns are compiled eagerly.
	Scanner struct {
		root     string
		patterns []*regexp.Regexp
		excludes []string
	}
)

// String formats a finding the way compilers do: path:line: text.
func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s", f.Path, f.Line, f.Text)
}

// NewScanner compiles the given patterns (DefaultPattern when none are
// given) and validates the exclude globs. Invalid patterns or globs fail at
// construction time rather than silently matching nothing.
func NewScanner(root string, patterns []string, excludes []string) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", absRoot)
	}

	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, compileErr := regexp.Compile(p)
		if compileErr != nil {
			return nil, fmt.Errorf("invalid lint pattern %q: %w", p, compileErr)
		}
		compiled = append(compiled, re)
	}

	merged := make([]string, 0, len(defaultExcludes)+len(excludes))
	merged = append(merged, defaultExcludes...)
	merged = append(merged, excludes...)
	for _, glob := range merged {
		if _, matchErr := doublestar.Match(glob, ""); matchErr != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", glob, matchErr)
		}
	}

	return &Scanner{root: absRoot, patterns: compiled, excludes: merged}, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string { return s.root }

// Run walks the tree and returns all findings sorted by path then line.
// Unreadable files are skipped; only the walk itself can fail.
func (s *Scanner) Run() ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // skip unreadable entries
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != s.root && (s.excluded(rel) || s.excluded(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.excluded(rel) {
			return nil
		}

		fileFindings, scanErr := s.scanFile(path, rel)
		if scanErr != nil {
			return nil // unreadable file, skip
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Line < findings[j].Line
	})
	return findings, nil
}

// excluded reports whether the slash-separated relative path matches any
// exclude glob. Directories are additionally checked with a trailing slash
// so "**/dir/**" style globs prune the walk before descending.
func (s *Scanner) excluded(rel string) bool {
	for _, glob := range s.excludes {
		if matched, err := doublestar.Match(glob, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// scanFile matches every line of one file against the forbidden patterns.
func (s *Scanner) scanFile(path, rel string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	var findings []Finding

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, re := range s.patterns {
			if re.MatchString(line) {
				findings = append(findings, Finding{
					Path:    rel,
					Line:    lineNo,
					Text:    strings.TrimSpace(line),
					Pattern: re.String(),
				})
				break // one finding per line is enough
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}
