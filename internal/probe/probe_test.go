// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"modshim/internal/registry"
	"modshim/internal/resolver"
)

func TestStatic_Success(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mod.py")
	if err := os.WriteFile(path, []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reg := registry.New(resolver.New(root))
	res := Static(reg, "mod")

	if !res.OK() {
		t.Fatalf("Static() failed: %v", res.Err)
	}
	if res.Path != path {
		t.Errorf("Path = %s, want %s", res.Path, path)
	}
}

func TestStatic_Failure(t *testing.T) {
	reg := registry.New(resolver.New(t.TempDir()))

	res := Static(reg, "missing.module")
	if res.OK() {
		t.Error("Static() succeeded for missing module")
	}
}

func TestExec_SuccessExitCode(t *testing.T) {
	res := Exec(context.Background(), "mod", ExecOptions{Command: "exit 0"})

	if !res.OK() {
		t.Fatalf("Exec() failed: %v", res.Err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExec_FailureExitCode(t *testing.T) {
	res := Exec(context.Background(), "mod", ExecOptions{Command: "exit 3"})

	if res.OK() {
		t.Fatal("Exec() succeeded, want failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestExec_ExportsModuleAndSearchPath(t *testing.T) {
	roots := []string{filepath.Join("/", "tmp", "a"), filepath.Join("/", "tmp", "b")}
	var stdout bytes.Buffer

	res := Exec(context.Background(), "recorder.storage", ExecOptions{
		Command: `echo "$MODSHIM_PROBE_MODULE|$PYTHONPATH"`,
		Roots:   roots,
		Stdout:  &stdout,
	})
	if !res.OK() {
		t.Fatalf("Exec() failed: %v", res.Err)
	}

	got := strings.TrimSpace(stdout.String())
	want := "recorder.storage|" + SearchPathList(roots)
	if got != want {
		t.Errorf("probe env = %q, want %q", got, want)
	}
}

func TestExec_CustomPathEnvVar(t *testing.T) {
	var stdout bytes.Buffer

	res := Exec(context.Background(), "mod", ExecOptions{
		Command:    `echo "$MYPATH"`,
		PathEnvVar: "MYPATH",
		Roots:      []string{"/srv/code"},
		Stdout:     &stdout,
	})
	if !res.OK() {
		t.Fatalf("Exec() failed: %v", res.Err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "/srv/code" {
		t.Errorf("MYPATH = %q, want /srv/code", got)
	}
}

func TestExec_InvalidModuleName(t *testing.T) {
	res := Exec(context.Background(), `mod"; rm -rf /`, ExecOptions{Command: "exit 0"})

	if res.OK() {
		t.Error("Exec() accepted an invalid module name")
	}
}

func TestExec_Timeout(t *testing.T) {
	start := time.Now()
	res := Exec(context.Background(), "mod", ExecOptions{
		Command: "sleep 10",
		Timeout: 100 * time.Millisecond,
	})

	if res.OK() {
		t.Fatal("Exec() succeeded, want timeout failure")
	}
	if !strings.Contains(res.Err.Error(), "timed out") {
		t.Errorf("Err = %v, want timeout error", res.Err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("probe took %s, timeout did not bound it", elapsed)
	}
}

func TestExec_BadCommandSyntax(t *testing.T) {
	res := Exec(context.Background(), "mod", ExecOptions{Command: "if then fi ((("})

	if res.OK() {
		t.Error("Exec() succeeded with unparsable command")
	}
}

func TestSearchPathList(t *testing.T) {
	if got := SearchPathList(nil); got != "" {
		t.Errorf("SearchPathList(nil) = %q, want empty", got)
	}

	roots := []string{"/a", "/b"}
	want := "/a" + string(os.PathListSeparator) + "/b"
	if got := SearchPathList(roots); got != want {
		t.Errorf("SearchPathList(%v) = %q, want %q", roots, got, want)
	}
}
