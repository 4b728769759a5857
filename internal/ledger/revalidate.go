// SPDX-License-Identifier: MPL-2.0

package ledger

import (
	"context"
	"fmt"
	"io"

	"modshim/internal/probe"

	"github.com/charmbracelet/log"
)

type (
	// ProbeFunc verifies one module. The default implementation spawns an
	// exec probe; tests inject a fake.
	ProbeFunc func(ctx context.Context, module string) probe.Result

	// Revalidator walks a ledger and re-verifies every unvalidated row.
	// Probes run strictly sequentially, one subprocess at a time; a row
	// failure is logged and the batch continues.
	Revalidator struct {
		// Probe verifies one module. Required.
		Probe ProbeFunc
		// Roots are the search roots used to derive modules from file paths.
		Roots []string
		// Logger receives per-row progress and failures. Nil disables logging.
		Logger *log.Logger
	}

	// Summary totals one revalidation run.
	Summary struct {
		// Rows is the number of data rows seen.
		Rows int
		// Skipped rows already carried an affirmative marker.
		Skipped int
		// Updated rows verified cleanly and got the marker written.
		Updated int
		// Failed rows could not be verified; their marker is untouched.
		Failed int
	}
)

// ExecProbe builds the production ProbeFunc from exec-probe options.
func ExecProbe(opts probe.ExecOptions) ProbeFunc {
	return func(ctx context.Context, module string) probe.Result {
		return probe.Exec(ctx, module, opts)
	}
}

// Run revalidates every row of the ledger. Rows already marked affirmative
// are skipped without spawning anything. The ledger is mutated in memory
// only; the caller decides whether to Save based on Dirty. Run stops early
// only on context cancellation.
func (r *Revalidator) Run(ctx context.Context, led *Ledger) (Summary, error) {
	if r.Probe == nil {
		return Summary{}, fmt.Errorf("revalidate: no probe configured")
	}

	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var sum Summary
	for row := range led.Rows {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("revalidate interrupted: %w", err)
		}
		sum.Rows++

		if led.Validated(row) {
			sum.Skipped++
			continue
		}

		modules := led.ModulesForRow(row, r.Roots)
		if len(modules) == 0 {
			sum.Failed++
			logger.Warn("no module derivable for row",
				"row", row+1,
				"new_import", led.Value(row, ColNewImport),
				"file_path", led.Value(row, ColFilePath))
			continue
		}

		if failed := r.probeAll(ctx, logger, row, modules); failed {
			sum.Failed++
			continue
		}

		led.SetValue(row, ColValidated, Marker)
		sum.Updated++
		logger.Info("row validated", "row", row+1, "modules", modules)
	}

	return sum, nil
}

// probeAll verifies each derived module in order and reports whether any
// probe failed. Later modules are not probed once one fails.
func (r *Revalidator) probeAll(ctx context.Context, logger *log.Logger, row int, modules []string) bool {
	for _, module := range modules {
		res := r.Probe(ctx, module)
		if !res.OK() {
			logger.Warn("import probe failed",
				"row", row+1,
				"module", module,
				"exit_code", res.ExitCode,
				"err", res.Err)
			return true
		}
	}
	return false
}
