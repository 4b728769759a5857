// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"modshim/internal/config"
	"modshim/internal/probe"
	"modshim/internal/registry"
	"modshim/internal/resolver"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and delegate configuration loading and registry construction
	// through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp. Tests can
	// supply mock implementations to isolate specific service behavior.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options. The second
	// return value is the resolved config file path ("" for defaults).
	// This abstraction enables testing with custom config sources.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// loadConfig loads configuration honoring the global --config flag. When the
// user explicitly specified a config file, load failures abort; otherwise a
// warning is printed and defaults keep the command operational.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, _, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err == nil {
		return cfg, nil
	}

	if cfgFile != "" {
		// An explicitly requested config file must work.
		return nil, err
	}

	fmt.Fprintln(a.stderr, WarningStyle.Render("warning: ")+formatErrorForDisplay(err, verbose))
	return config.DefaultConfig(), nil
}

// buildResolver constructs a search-path resolver from the configured roots,
// any roots given on the command line, and roots injected through the
// environment. Roots are listed lowest precedence first and front-inserted in
// order, so command-line roots shadow configured ones and environment roots
// shadow both. Nested probe subprocesses receive the same environment
// variable, so resolution order survives across process boundaries.
func (a *App) buildResolver(cfg *config.Config, cliRoots []string) *resolver.Resolver {
	res := resolver.New()
	for _, root := range cfg.SearchRoots {
		res.AddRoot(root)
	}
	for _, root := range cliRoots {
		res.AddRoot(root)
	}
	if envRoots := os.Getenv(probe.RootsEnvVar); envRoots != "" {
		for _, root := range strings.Split(envRoots, string(os.PathListSeparator)) {
			if root != "" {
				res.AddRoot(root)
			}
		}
	}
	return res
}

// buildRegistry constructs a module registry over the resolver and applies
// the configured alias pairs, gated on the alias environment variable.
func (a *App) buildRegistry(cfg *config.Config, cliRoots []string) (*registry.Registry, []registry.AliasResult, error) {
	res := a.buildResolver(cfg, cliRoots)
	reg := registry.New(res)

	gate, err := registry.LoadGate()
	if err != nil {
		return nil, nil, fmt.Errorf("parse alias gate: %w", err)
	}

	results := reg.ApplyAliases(bool(gate.CompatAliases), cfg.Aliases)
	return reg, results, nil
}
