// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"path/filepath"

	"modshim/internal/registry"
)

type (
	// Config is the full modshim configuration.
	Config struct {
		// SearchRoots are the module discovery roots, listed lowest
		// precedence first; the resolver front-inserts them in order, so the
		// last entry shadows the ones before it.
		SearchRoots []string `mapstructure:"search_roots"`

		// Aliases are the compat alias pairs applied when the alias gate
		// environment variable is truthy.
		Aliases []registry.AliasPair `mapstructure:"aliases"`

		// Lint configures the forbidden-import scanner.
		Lint LintConfig `mapstructure:"lint"`

		// Probe configures exec probes (revalidation and `modshim probe --exec`).
		Probe ProbeConfig `mapstructure:"probe"`

		// Database configures the migration database check.
		Database DatabaseConfig `mapstructure:"database"`
	}

	// LintConfig configures the forbidden-import scanner.
	LintConfig struct {
		// Patterns are the forbidden-line regexes. Empty means the built-in
		// legacy-import pattern.
		Patterns []string `mapstructure:"patterns"`
		// Exclude are doublestar globs never scanned, on top of built-ins.
		Exclude []string `mapstructure:"exclude"`
		// Baseline is the accepted-findings TOML file; empty disables baselining.
		Baseline string `mapstructure:"baseline"`
	}

	// ProbeConfig configures exec probes.
	ProbeConfig struct {
		// Command is the shell snippet run per probe; empty means the
		// built-in interpreter import command.
		Command string `mapstructure:"command"`
		// TimeoutSeconds bounds one probe subprocess.
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
		// PathEnvVar is the search-path variable exported to the subprocess.
		PathEnvVar string `mapstructure:"path_env_var"`
	}

	// DatabaseConfig configures the migration database check.
	DatabaseConfig struct {
		// Path is the SQLite database file.
		Path string `mapstructure:"path"`
		// ExpectedTables is the table set a healthy database carries; empty
		// means the built-in default set.
		ExpectedTables []string `mapstructure:"expected_tables"`
	}
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Probe: ProbeConfig{
			TimeoutSeconds: 60,
			PathEnvVar:     "PYTHONPATH",
		},
	}
}

// Validate checks constraints the CUE schema cannot express: root
// uniqueness and alias-pair consistency.
func (c *Config) Validate() error {
	if err := validateSearchRoots(c.SearchRoots); err != nil {
		return err
	}
	if err := validateAliases(c.Aliases); err != nil {
		return err
	}
	if c.Probe.TimeoutSeconds < 0 {
		return fmt.Errorf("probe.timeout_seconds must not be negative")
	}
	return nil
}

// validateSearchRoots rejects duplicate roots after path normalization, so
// "a/b" and "a/b/" cannot sneak in twice with different precedence.
func validateSearchRoots(roots []string) error {
	seen := make(map[string]int, len(roots))
	for i, root := range roots {
		clean := filepath.Clean(root)
		if first, dup := seen[clean]; dup {
			return fmt.Errorf("search_roots[%d]: duplicate root %q (same as search_roots[%d])", i, root, first)
		}
		seen[clean] = i
	}
	return nil
}

// validateAliases checks each pair and rejects a legacy name bound twice;
// the second binding would silently win and that is never what the author
// meant.
func validateAliases(pairs []registry.AliasPair) error {
	seen := make(map[string]int, len(pairs))
	for i, pair := range pairs {
		if err := pair.Validate(); err != nil {
			return fmt.Errorf("aliases[%d]: %w", i, err)
		}
		if first, dup := seen[pair.Legacy]; dup {
			return fmt.Errorf("aliases[%d]: legacy name %q already aliased by aliases[%d]", i, pair.Legacy, first)
		}
		seen[pair.Legacy] = i
	}
	return nil
}
