// SPDX-License-Identifier: MPL-2.0

// Package resolver maps dotted module names to files across an ordered list
// of search roots.
//
// A Resolver replaces the implicit interpreter search path with an explicit,
// injectable value: roots are added at construction time (or later via
// AddRoot), consulted front-to-back, and a module found under an earlier
// root shadows a same-named module under a later one.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	// sourceExt is the file extension tried when resolving a leaf module.
	sourceExt = ".py"
	// packageMarker is the file that makes a directory resolvable as a package.
	packageMarker = "__init__.py"
)

// namePattern validates dotted module names: identifiers separated by dots.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidName reports whether name is a well-formed dotted module name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

type (
	// Module is the shared handle for a resolved module. Callers that receive
	// the same *Module from two different lookups are guaranteed to observe
	// one identical object, not two equal copies.
	Module struct {
		// Name is the dotted module name used to resolve this module.
		Name string
		// Path is the absolute file path the name resolved to.
		Path string
		// Root is the search root the module was found under.
		Root string
		// IsPackage is true when Path is a package marker file rather than
		// a leaf source file.
		IsPackage bool
	}

	// Resolver resolves dotted module names against an ordered root list.
	// The zero value is usable and resolves nothing until roots are added.
	Resolver struct {
		roots []string
	}

	// NotFoundError is returned when a module name resolves under no root.
	NotFoundError struct {
		Name  string
		Roots []string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Roots) == 0 {
		return fmt.Sprintf("module %q not found: no search roots configured", e.Name)
	}
	return fmt.Sprintf("module %q not found under %d search root(s)", e.Name, len(e.Roots))
}

// New creates a Resolver from the given roots. Roots are added in order with
// AddRoot semantics, so the FIRST argument ends up with the LOWEST precedence
// and the last argument shadows all the ones before it.
func New(roots ...string) *Resolver {
	r := &Resolver{}
	for _, root := range roots {
		r.AddRoot(root)
	}
	return r
}

// AddRoot inserts dir at the front of the root list so it shadows every root
// added before it. Insertion is idempotent (an already-present root is not
// added twice) and silently skips directories that do not exist or paths that
// are not directories. It reports whether the root was actually added.
func (r *Resolver) AddRoot(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return false
	}

	for _, existing := range r.roots {
		if existing == abs {
			return false
		}
	}

	r.roots = append([]string{abs}, r.roots...)
	return true
}

// Roots returns a copy of the root list in precedence order (highest first).
func (r *Resolver) Roots() []string {
	out := make([]string, len(r.roots))
	copy(out, r.roots)
	return out
}

// Resolve maps a dotted module name to the file it denotes. Roots are tried
// in precedence order; within one root a leaf source file is preferred over
// a package directory. Returns a *NotFoundError when no root has the module.
func (r *Resolver) Resolve(name string) (*Module, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid module name %q", name)
	}

	relBase := filepath.Join(strings.Split(name, ".")...)

	for _, root := range r.roots {
		leaf := filepath.Join(root, relBase+sourceExt)
		if fileExists(leaf) {
			return &Module{Name: name, Path: leaf, Root: root}, nil
		}

		marker := filepath.Join(root, relBase, packageMarker)
		if fileExists(marker) {
			return &Module{Name: name, Path: marker, Root: root, IsPackage: true}, nil
		}
	}

	return nil, &NotFoundError{Name: name, Roots: r.Roots()}
}

// ListModules enumerates every module resolvable through the current roots.
// The result is the union of the modules present under each root, with a
// module under a higher-precedence root shadowing same-named modules under
// lower-precedence roots. The slice is sorted by name.
func (r *Resolver) ListModules() []Module {
	seen := make(map[string]Module)

	for _, root := range r.roots {
		for _, m := range modulesUnder(root) {
			if _, ok := seen[m.Name]; !ok {
				seen[m.Name] = m
			}
		}
	}

	out := make([]Module, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// modulesUnder walks one root and returns the modules physically present
// under it. Directories without a package marker are still descended into,
// but only files reachable through valid dotted names are reported.
func modulesUnder(root string) []Module {
	var modules []Module

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		name, isPkg, ok := nameForRelPath(rel)
		if !ok {
			return nil
		}

		modules = append(modules, Module{
			Name:      name,
			Path:      path,
			Root:      root,
			IsPackage: isPkg,
		})
		return nil
	})

	return modules
}

// nameForRelPath converts a root-relative file path into a dotted module
// name. Package markers name their containing directory; other source files
// name themselves. Non-source files and invalid identifiers yield ok=false.
func nameForRelPath(rel string) (name string, isPackage bool, ok bool) {
	rel = filepath.ToSlash(rel)

	switch {
	case strings.HasSuffix(rel, "/"+packageMarker):
		name = strings.TrimSuffix(rel, "/"+packageMarker)
		isPackage = true
	case rel == packageMarker:
		return "", false, false // a marker directly in the root names nothing
	case strings.HasSuffix(rel, sourceExt):
		name = strings.TrimSuffix(rel, sourceExt)
	default:
		return "", false, false
	}

	name = strings.ReplaceAll(name, "/", ".")
	if !namePattern.MatchString(name) {
		return "", false, false
	}
	return name, isPackage, true
}

// CandidateRoots computes sibling-layout candidates for a package file that
// physically lives in one directory but whose sub-modules are stored under
// differently-named sibling trees. Given the package file location and the
// sibling directory names to try, it returns those that exist on disk, in
// the order given. Candidates that do not exist are silently skipped.
func CandidateRoots(pkgFile string, siblingNames ...string) []string {
	pkgDir := filepath.Dir(pkgFile)
	parent := filepath.Dir(pkgDir)

	var candidates []string
	for _, name := range siblingNames {
		dir := filepath.Join(parent, name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		candidates = append(candidates, dir)
	}
	return candidates
}

// fileExists checks that path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
