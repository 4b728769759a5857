// SPDX-License-Identifier: MPL-2.0

package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modshim/internal/probe"
)

// fakeProbe records probed modules and fails the ones listed in failures.
type fakeProbe struct {
	probed   []string
	failures map[string]bool
}

func (f *fakeProbe) fn(_ context.Context, module string) probe.Result {
	f.probed = append(f.probed, module)
	if f.failures[module] {
		return probe.Result{Module: module, ExitCode: 2, Err: fmt.Errorf("import of %q failed", module)}
	}
	return probe.Result{Module: module}
}

func loadTestLedger(t *testing.T, rows ...string) *Ledger {
	t.Helper()
	content := "new_import;validated;file_path\n" + strings.Join(rows, "\n") + "\n"
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return l
}

func TestRun_UpdatesSuccessfulRows(t *testing.T) {
	l := loadTestLedger(t,
		"import recorder.storage;;src/recorder/storage.py",
		"import recorder.jobs;;src/recorder/jobs.py",
	)
	fp := &fakeProbe{}

	r := &Revalidator{Probe: fp.fn}
	sum, err := r.Run(context.Background(), l)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Rows != 2 || sum.Updated != 2 || sum.Failed != 0 || sum.Skipped != 0 {
		t.Errorf("Summary = %+v, want 2 rows updated", sum)
	}
	if l.Value(0, ColValidated) != Marker || l.Value(1, ColValidated) != Marker {
		t.Error("validated markers not written")
	}
	if !l.Dirty() {
		t.Error("ledger not dirty after updates")
	}
}

func TestRun_SkipsAffirmativeRowsWithoutProbing(t *testing.T) {
	l := loadTestLedger(t,
		"import recorder.storage;OK;src/recorder/storage.py",
		"import recorder.jobs;OK (manual);src/recorder/jobs.py",
	)
	fp := &fakeProbe{}

	r := &Revalidator{Probe: fp.fn}
	sum, err := r.Run(context.Background(), l)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", sum.Skipped)
	}
	if len(fp.probed) != 0 {
		t.Errorf("probed = %v, want none: affirmative rows must not spawn probes", fp.probed)
	}
	if l.Dirty() {
		t.Error("ledger dirty after run that changed nothing")
	}
}

func TestRun_FailedRowKeepsMarkerAndBatchContinues(t *testing.T) {
	l := loadTestLedger(t,
		"import recorder.gone;;src/recorder/gone.py",
		"import recorder.storage;;src/recorder/storage.py",
	)
	fp := &fakeProbe{failures: map[string]bool{"recorder.gone": true}}

	r := &Revalidator{Probe: fp.fn}
	sum, err := r.Run(context.Background(), l)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Failed != 1 || sum.Updated != 1 {
		t.Errorf("Summary = %+v, want 1 failed and 1 updated", sum)
	}
	if got := l.Value(0, ColValidated); got != "" {
		t.Errorf("failed row marker = %q, want untouched empty value", got)
	}
	if got := l.Value(1, ColValidated); got != Marker {
		t.Errorf("successful row marker = %q, want %q", got, Marker)
	}
}

func TestRun_DerivesFromFilePathWhenImportMissing(t *testing.T) {
	l := loadTestLedger(t, ";;voice_recorder/storage.py")
	fp := &fakeProbe{}

	r := &Revalidator{Probe: fp.fn}
	if _, err := r.Run(context.Background(), l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fp.probed) != 1 || fp.probed[0] != "voice_recorder.storage" {
		t.Errorf("probed = %v, want [voice_recorder.storage]", fp.probed)
	}
}

func TestRun_UnderivableRowFails(t *testing.T) {
	l := loadTestLedger(t, "not an import;;")
	fp := &fakeProbe{}

	r := &Revalidator{Probe: fp.fn}
	sum, err := r.Run(context.Background(), l)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Failed != 1 {
		t.Errorf("Failed = %d, want 1", sum.Failed)
	}
	if len(fp.probed) != 0 {
		t.Errorf("probed = %v, want none", fp.probed)
	}
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	l := loadTestLedger(t, "import a;;a.py", "import b;;b.py")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Revalidator{Probe: (&fakeProbe{}).fn}
	_, err := r.Run(ctx, l)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_NoProbeConfigured(t *testing.T) {
	l := loadTestLedger(t, "import a;;a.py")

	r := &Revalidator{}
	if _, err := r.Run(context.Background(), l); err == nil {
		t.Error("Run() without probe succeeded, want error")
	}
}

func TestRun_ProbesEveryDerivedModule(t *testing.T) {
	l := loadTestLedger(t, "from recorder.cloud import sync;;src/recorder/cloud/sync.py")
	fp := &fakeProbe{}

	r := &Revalidator{Probe: fp.fn}
	if _, err := r.Run(context.Background(), l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"recorder.cloud", "recorder.cloud.sync"}
	if len(fp.probed) != 2 || fp.probed[0] != want[0] || fp.probed[1] != want[1] {
		t.Errorf("probed = %v, want %v", fp.probed, want)
	}
}
