// SPDX-License-Identifier: MPL-2.0

// Package probe answers one question: does a module import?
//
// A static probe resolves the name through the registry without touching an
// interpreter. An exec probe runs a real import in a subprocess shell with
// the search roots exported on the interpreter's path variable, so it
// exercises the same machinery the application would.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"modshim/internal/registry"
	"modshim/internal/resolver"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// DefaultTimeout bounds one exec probe. Imports that hang (network
	// mounts, import-time side effects) must not stall a whole batch.
	DefaultTimeout = 60 * time.Second

	// DefaultPathEnvVar is the interpreter search-path variable the roots
	// are exported on.
	DefaultPathEnvVar = "PYTHONPATH"

	// DefaultCommand is the shell snippet run by an exec probe. The module
	// name is exported as $MODSHIM_PROBE_MODULE; names are validated dotted
	// identifiers, so the expansion is quoting-safe.
	DefaultCommand = `python3 -c "import ${MODSHIM_PROBE_MODULE}"`

	// ModuleEnvVar carries the probed module name into the subprocess.
	ModuleEnvVar = "MODSHIM_PROBE_MODULE"

	// RootsEnvVar carries the search roots into the subprocess so nested
	// tool invocations see the same resolution order.
	RootsEnvVar = "MODSHIM_SEARCH_ROOTS"
)

type (
	// Result reports one probe outcome. Err is nil exactly when the module
	// imported (or resolved) cleanly.
	Result struct {
		// Module is the probed dotted name.
		Module string
		// Path is the resolved file for static probes; empty for exec probes.
		Path string
		// ExitCode is the subprocess exit status for exec probes.
		ExitCode int
		// Duration is how long the probe took.
		Duration time.Duration
		// Err is the failure, if any.
		Err error
	}

	// ExecOptions configures an exec probe. The zero value probes with the
	// default interpreter command, default timeout and no search roots.
	ExecOptions struct {
		// Command is the shell snippet to run; empty means DefaultCommand.
		Command string
		// Timeout bounds the subprocess; zero or negative means DefaultTimeout.
		Timeout time.Duration
		// PathEnvVar is the search-path variable name; empty means DefaultPathEnvVar.
		PathEnvVar string
		// Roots are the search roots, highest precedence first.
		Roots []string
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Stdout and Stderr receive subprocess output; nil discards it.
		Stdout io.Writer
		Stderr io.Writer
	}
)

// OK reports whether the probe succeeded.
func (r Result) OK() bool { return r.Err == nil }

// SearchPathList joins roots with the platform's path-list separator,
// matching the convention of PATH-style environment variables.
func SearchPathList(roots []string) string {
	return strings.Join(roots, string(os.PathListSeparator))
}

// Static resolves name through the registry without running an interpreter.
func Static(reg *registry.Registry, name string) Result {
	start := time.Now()

	m, err := reg.Lookup(name)
	res := Result{Module: name, Duration: time.Since(start), Err: err}
	if err == nil {
		res.Path = m.Path
	}
	return res
}

// Exec runs a real import in a subprocess shell. The command is parsed and
// executed by the embedded shell interpreter, so probes behave identically
// across platforms and need no /bin/sh.
func Exec(ctx context.Context, name string, opts ExecOptions) Result {
	start := time.Now()
	fail := func(err error) Result {
		return Result{Module: name, ExitCode: 1, Duration: time.Since(start), Err: err}
	}

	if !resolver.ValidName(name) {
		return fail(fmt.Errorf("invalid module name %q", name))
	}

	command := opts.Command
	if command == "" {
		command = DefaultCommand
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pathVar := opts.PathEnvVar
	if pathVar == "" {
		pathVar = DefaultPathEnvVar
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "probe")
	if err != nil {
		return fail(fmt.Errorf("parse probe command: %w", err))
	}

	pathList := SearchPathList(opts.Roots)
	environ := append(os.Environ(),
		ModuleEnvVar+"="+name,
		RootsEnvVar+"="+pathList,
		pathVar+"="+pathList,
	)

	runner, err := interp.New(
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(environ...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fail(fmt.Errorf("create probe interpreter: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = runner.Run(runCtx, prog)
	duration := time.Since(start)

	if err == nil {
		return Result{Module: name, Duration: duration}
	}

	var exitStatus interp.ExitStatus
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return Result{
			Module:   name,
			ExitCode: 1,
			Duration: duration,
			Err:      fmt.Errorf("probe timed out after %s", timeout),
		}
	case errors.As(err, &exitStatus):
		return Result{
			Module:   name,
			ExitCode: int(exitStatus),
			Duration: duration,
			Err:      fmt.Errorf("import of %q failed with exit status %d", name, int(exitStatus)),
		}
	default:
		return Result{Module: name, ExitCode: 1, Duration: duration, Err: err}
	}
}
