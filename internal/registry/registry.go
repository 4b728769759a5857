// SPDX-License-Identifier: MPL-2.0

// Package registry owns the mapping from logical module names to shared
// module handles.
//
// It replaces a mutable interpreter-global module table with a single owned
// map: aliasing binds a legacy name to the exact handle the canonical name
// resolves to, so identity checks and shared state behave the same no matter
// which spelling a caller looks up.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"modshim/internal/resolver"
)

// ErrAliasesDisabled is reported on skipped pairs when the compat-alias gate
// is off. Callers can use it to tell "feature intentionally inactive" apart
// from "feature failed".
var ErrAliasesDisabled = errors.New("compat aliases disabled")

type (
	// AliasPair declares that the legacy spelling must resolve to the same
	// module handle as the canonical one.
	AliasPair struct {
		Legacy    string `mapstructure:"legacy"`
		Canonical string `mapstructure:"canonical"`
	}

	// AliasStatus classifies the outcome of applying one alias pair.
	AliasStatus int

	// AliasResult is the typed per-pair outcome of ApplyAliases. A Failed
	// result carries the resolution error; the other statuses leave Err nil
	// except Skipped, which carries ErrAliasesDisabled.
	AliasResult struct {
		Pair   AliasPair
		Status AliasStatus
		Err    error
	}

	// Registry maps logical names to shared *resolver.Module handles.
	// Lookups fall through to the backing resolver on a miss and cache the
	// handle, so repeated lookups of one name always return one object.
	Registry struct {
		mu      sync.RWMutex
		res     *resolver.Resolver
		modules map[string]*resolver.Module
	}
)

const (
	// AliasApplied means the legacy name now maps to the canonical handle.
	AliasApplied AliasStatus = iota
	// AliasAlreadyBound means the legacy name already mapped to that exact handle.
	AliasAlreadyBound
	// AliasSkipped means the gate was off and the registry was not touched.
	AliasSkipped
	// AliasFailed means the canonical name could not be resolved.
	AliasFailed
)

// String returns a human-readable status name.
func (s AliasStatus) String() string {
	switch s {
	case AliasApplied:
		return "applied"
	case AliasAlreadyBound:
		return "already bound"
	case AliasSkipped:
		return "skipped"
	case AliasFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validate checks that both names are present and distinct.
func (p AliasPair) Validate() error {
	if p.Legacy == "" || p.Canonical == "" {
		return fmt.Errorf("alias pair %q -> %q: both names are required", p.Legacy, p.Canonical)
	}
	if p.Legacy == p.Canonical {
		return fmt.Errorf("alias pair %q: legacy and canonical names must differ", p.Legacy)
	}
	return nil
}

// New creates a Registry backed by the given resolver.
func New(res *resolver.Resolver) *Registry {
	return &Registry{
		res:     res,
		modules: make(map[string]*resolver.Module),
	}
}

// Lookup returns the shared handle for name. A cached binding (including an
// alias binding) wins; otherwise the name is resolved through the backing
// resolver and the handle is cached for future lookups.
func (r *Registry) Lookup(name string) (*resolver.Module, error) {
	r.mu.RLock()
	if m, ok := r.modules[name]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	m, err := r.res.Resolve(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have raced us here; keep the first handle so
	// identity stays stable.
	if existing, ok := r.modules[name]; ok {
		return existing, nil
	}
	r.modules[name] = m
	return m, nil
}

// Bind maps name to the given handle, overwriting any previous binding.
func (r *Registry) Bind(name string, m *resolver.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = m
}

// Bound reports whether name currently has a cached binding, without
// consulting the backing resolver.
func (r *Registry) Bound(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// Names returns the currently bound names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// ApplyAliases binds every pair's legacy name to the handle its canonical
// name resolves to. One failing pair never aborts the rest; each pair gets
// its own AliasResult. When enabled is false the registry is left completely
// untouched and every pair is reported as AliasSkipped.
func (r *Registry) ApplyAliases(enabled bool, pairs []AliasPair) []AliasResult {
	results := make([]AliasResult, 0, len(pairs))

	if !enabled {
		for _, p := range pairs {
			results = append(results, AliasResult{Pair: p, Status: AliasSkipped, Err: ErrAliasesDisabled})
		}
		return results
	}

	for _, p := range pairs {
		if err := p.Validate(); err != nil {
			results = append(results, AliasResult{Pair: p, Status: AliasFailed, Err: err})
			continue
		}

		canonical, err := r.Lookup(p.Canonical)
		if err != nil {
			results = append(results, AliasResult{Pair: p, Status: AliasFailed, Err: err})
			continue
		}

		r.mu.Lock()
		if existing, ok := r.modules[p.Legacy]; ok && existing == canonical {
			r.mu.Unlock()
			results = append(results, AliasResult{Pair: p, Status: AliasAlreadyBound})
			continue
		}
		r.modules[p.Legacy] = canonical
		r.mu.Unlock()

		results = append(results, AliasResult{Pair: p, Status: AliasApplied})
	}

	return results
}
