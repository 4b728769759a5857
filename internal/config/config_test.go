// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modshim/internal/registry"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.SearchRoots) != 0 {
		t.Errorf("expected default search roots to be empty, got %v", cfg.SearchRoots)
	}
	if len(cfg.Aliases) != 0 {
		t.Errorf("expected default aliases to be empty, got %v", cfg.Aliases)
	}
	if cfg.Probe.TimeoutSeconds != 60 {
		t.Errorf("expected default probe timeout to be 60s, got %d", cfg.Probe.TimeoutSeconds)
	}
	if cfg.Probe.PathEnvVar != "PYTHONPATH" {
		t.Errorf("expected default path env var to be PYTHONPATH, got %q", cfg.Probe.PathEnvVar)
	}
	if cfg.Probe.Command != "" {
		t.Errorf("expected default probe command to be empty, got %q", cfg.Probe.Command)
	}
}

// withConfigDir points the loader at a temp config directory for one test.
func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)
	return dir
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	withConfigDir(t)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty for defaults", path)
	}
	if cfg.Probe.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want default 60", cfg.Probe.TimeoutSeconds)
	}
}

func TestLoad_CUEFileFromConfigDir(t *testing.T) {
	dir := withConfigDir(t)

	content := `
search_roots: ["src", "voice_recorder"]
aliases: [
	{legacy: "models", canonical: "voice_recorder.models"},
]
probe: {
	timeout_seconds: 5
}
`
	cfgPath := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != cfgPath {
		t.Errorf("resolved path = %q, want %q", path, cfgPath)
	}
	if len(cfg.SearchRoots) != 2 || cfg.SearchRoots[1] != "voice_recorder" {
		t.Errorf("SearchRoots = %v", cfg.SearchRoots)
	}
	if len(cfg.Aliases) != 1 || cfg.Aliases[0].Legacy != "models" {
		t.Errorf("Aliases = %v", cfg.Aliases)
	}
	if cfg.Probe.TimeoutSeconds != 5 {
		t.Errorf("TimeoutSeconds = %d, want 5 from file", cfg.Probe.TimeoutSeconds)
	}
	// Fields the file omits keep their defaults.
	if cfg.Probe.PathEnvVar != "PYTHONPATH" {
		t.Errorf("PathEnvVar = %q, want default", cfg.Probe.PathEnvVar)
	}
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	withConfigDir(t)

	cfgPath := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(cfgPath, []byte(`search_roots: ["src"]`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: cfgPath})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != cfgPath {
		t.Errorf("resolved path = %q, want %q", path, cfgPath)
	}
	if len(cfg.SearchRoots) != 1 {
		t.Errorf("SearchRoots = %v", cfg.SearchRoots)
	}
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	withConfigDir(t)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "absent.cue"),
	})
	if err == nil {
		t.Fatal("loadWithOptions() with missing explicit file succeeded, want error")
	}
}

func TestLoad_InvalidCUESyntax(t *testing.T) {
	dir := withConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(`search_roots: [`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := loadWithOptions(context.Background(), LoadOptions{}); err == nil {
		t.Fatal("loadWithOptions() with broken CUE succeeded, want error")
	}
}

func TestLoad_SchemaRejectsWrongType(t *testing.T) {
	dir := withConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.cue"),
		[]byte(`probe: {timeout_seconds: "sixty"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := loadWithOptions(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("loadWithOptions() with mistyped field succeeded, want error")
	}
	if !strings.Contains(err.Error(), "timeout_seconds") {
		t.Errorf("error should name the offending field, got: %v", err)
	}
}

func TestLoad_ValidationRejectsDuplicateRoots(t *testing.T) {
	dir := withConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.cue"),
		[]byte(`search_roots: ["src", "src/"]`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := loadWithOptions(context.Background(), LoadOptions{}); err == nil {
		t.Fatal("loadWithOptions() with duplicate roots succeeded, want error")
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	withConfigDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := loadWithOptions(ctx, LoadOptions{}); err == nil {
		t.Fatal("loadWithOptions() with canceled context succeeded, want error")
	}
}

func TestGenerateCUE_RoundTrips(t *testing.T) {
	dir := withConfigDir(t)

	original := &Config{
		SearchRoots: []string{"src", "voice_recorder"},
		Aliases: []registry.AliasPair{
			{Legacy: "models", Canonical: "voice_recorder.models"},
		},
		Lint: LintConfig{
			Exclude:  []string{"migrations/**"},
			Baseline: "lint_baseline.toml",
		},
		Probe: ProbeConfig{TimeoutSeconds: 30, PathEnvVar: "PYTHONPATH"},
		Database: DatabaseConfig{
			Path:           "app.db",
			ExpectedTables: []string{"recordings"},
		},
	}

	cfgPath := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(original)), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, _, err := loadWithOptions(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}

	if len(loaded.SearchRoots) != 2 ||
		len(loaded.Aliases) != 1 ||
		loaded.Lint.Baseline != "lint_baseline.toml" ||
		loaded.Probe.TimeoutSeconds != 30 ||
		loaded.Database.Path != "app.db" {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := withConfigDir(t)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("config written to %q, want inside %q", path, dir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	// Existing files are left untouched.
	if err := os.WriteFile(path, []byte(`search_roots: ["custom"]`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() second call error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "custom") {
		t.Error("CreateDefaultConfig overwrote an existing config file")
	}
}
