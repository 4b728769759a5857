// SPDX-License-Identifier: MPL-2.0

package config

import (
	"strings"
	"testing"

	"modshim/internal/registry"
)

func TestValidate_OK(t *testing.T) {
	cfg := &Config{
		SearchRoots: []string{"src", "voice_recorder"},
		Aliases: []registry.AliasPair{
			{Legacy: "models", Canonical: "voice_recorder.models"},
			{Legacy: "services", Canonical: "voice_recorder.services"},
		},
		Probe: ProbeConfig{TimeoutSeconds: 60, PathEnvVar: "PYTHONPATH"},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_DuplicateRootsAfterCleaning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SearchRoots = []string{"src/app", "src//app/"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() with duplicate roots succeeded, want error")
	}
	if !strings.Contains(err.Error(), "duplicate root") {
		t.Errorf("error = %v, want mention of duplicate root", err)
	}
}

func TestValidate_AliasPairChecked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aliases = []registry.AliasPair{{Legacy: "models", Canonical: ""}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with incomplete alias pair succeeded, want error")
	}
}

func TestValidate_LegacyNameBoundTwice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aliases = []registry.AliasPair{
		{Legacy: "models", Canonical: "voice_recorder.models"},
		{Legacy: "models", Canonical: "voice_recorder.db.models"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() with legacy name bound twice succeeded, want error")
	}
	if !strings.Contains(err.Error(), "already aliased") {
		t.Errorf("error = %v, want mention of prior alias", err)
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Probe.TimeoutSeconds = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with negative timeout succeeded, want error")
	}
}
