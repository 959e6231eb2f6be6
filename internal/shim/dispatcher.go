// Package shim implements the entry point every linked tool name runs
// through: find the pinned version for the working directory, locate the
// tool inside that toolchain and hand the process over to it.
package shim

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"

	"pycors/internal/logx"
	"pycors/internal/paths"
	"pycors/internal/pin"
	"pycors/internal/platform"
	"pycors/internal/resolve"
	"pycors/internal/toolchain"
	"pycors/internal/version"
)

// ExecFunc replaces the current process with path. It returns only when that
// fails, or, where the platform cannot replace a process, once the child
// exits.
type ExecFunc func(ctx context.Context, path string, argv []string, env []string) error

// Target is a resolved shim invocation.
type Target struct {
	Tool      string
	Path      string
	Toolchain toolchain.Toolchain
	Pin       pin.File
}

// ToolNotFoundError reports a tool missing from the resolved toolchain.
type ToolNotFoundError struct {
	Tool    string
	Version version.Version
	BinDir  string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in python %s (%s)", e.Tool, e.Version, e.BinDir)
}

// ChildExitError carries the exit code of a child that ran to completion
// with a non-zero status. Only platforms without process replacement
// produce it.
type ChildExitError struct {
	Code int
}

func (e *ChildExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode is the status the shim itself should exit with.
func (e *ChildExitError) ExitCode() int { return e.Code }

// Dispatcher resolves and runs shimmed tools. It never installs anything.
type Dispatcher struct {
	Layout paths.Layout
	// Default applies when no pin file exists above the working directory.
	// Nil means latest.
	Default version.Specifier
	Exec    ExecFunc
	Logger  logx.Logger
}

// Resolve finds the binary that invokedName should run from cwd. Every call
// rescans the managed root.
func (d *Dispatcher) Resolve(invokedName, cwd string) (target Target, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.OrNop(d.Logger).Debugf("shim panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("internal error resolving %s: %v", invokedName, r)
		}
	}()

	tool := platform.ToolName(filepath.Base(invokedName))
	fallback := d.Default
	if fallback == nil {
		fallback = version.Latest{}
	}

	file, err := pin.Load(cwd, fallback)
	if err != nil {
		return Target{}, err
	}
	candidates, err := toolchain.Scan(d.Layout.InstalledDir)
	if err != nil {
		return Target{}, err
	}
	res := resolve.Resolve(file.Specifier, candidates)
	if err := res.Err(); err != nil {
		return Target{}, err
	}

	path, ok := res.Toolchain.LookupTool(tool)
	if !ok {
		return Target{}, &ToolNotFoundError{Tool: tool, Version: res.Toolchain.Version, BinDir: res.Toolchain.BinDir}
	}
	logx.OrNop(d.Logger).Debugf("%s -> %s (python %s, pin %q)", tool, path, res.Toolchain.Version, file.Path)
	return Target{Tool: tool, Path: path, Toolchain: res.Toolchain, Pin: file}, nil
}

// Dispatch resolves invokedName and execs it with args and env unchanged.
// On success it does not return on platforms with process replacement.
func (d *Dispatcher) Dispatch(ctx context.Context, invokedName string, args []string, cwd string, env []string) error {
	target, err := d.Resolve(invokedName, cwd)
	if err != nil {
		return err
	}
	execFn := d.Exec
	if execFn == nil {
		execFn = Exec
	}
	argv := append([]string{target.Path}, args...)
	return execFn(ctx, target.Path, argv, env)
}
