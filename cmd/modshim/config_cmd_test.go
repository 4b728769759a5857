// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modshim/internal/config"
)

func TestConfigInitCommand(t *testing.T) {
	config.SetConfigDirOverride(t.TempDir())
	t.Cleanup(config.Reset)

	app, stdout, _ := newTestApp(t, nil)

	if err := runCLI(t, app, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected config file created: %v", err)
	}
	if !strings.Contains(stdout.String(), cfgPath) {
		t.Errorf("expected created path in output:\n%s", stdout.String())
	}
}

func TestConfigShowCommand(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearchRoots = []string{"/srv/voice_recorder/src"}
	app, stdout, _ := newTestApp(t, cfg)

	if err := runCLI(t, app, "config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "built-in defaults") {
		t.Errorf("expected source annotation:\n%s", out)
	}
	if !strings.Contains(out, "/srv/voice_recorder/src") {
		t.Errorf("expected search root in rendered config:\n%s", out)
	}
}

func TestConfigPathCommand(t *testing.T) {
	t.Run("file in use", func(t *testing.T) {
		app, stdout, _ := newTestApp(t, nil)
		app.Config = staticConfigProvider{path: "/home/dev/.config/modshim/config.cue"}

		if err := runCLI(t, app, "config", "path"); err != nil {
			t.Fatalf("config path: %v", err)
		}
		if !strings.Contains(stdout.String(), "/home/dev/.config/modshim/config.cue") {
			t.Errorf("expected resolved path:\n%s", stdout.String())
		}
	})

	t.Run("no file yet", func(t *testing.T) {
		config.SetConfigDirOverride(t.TempDir())
		t.Cleanup(config.Reset)

		app, stdout, _ := newTestApp(t, nil)

		if err := runCLI(t, app, "config", "path"); err != nil {
			t.Fatalf("config path: %v", err)
		}
		if !strings.Contains(stdout.String(), "not created yet") {
			t.Errorf("expected not-created notice:\n%s", stdout.String())
		}
	})
}
