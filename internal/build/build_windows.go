//go:build windows

package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// payloadBuilder lays out the prebuilt NuGet payload and bootstraps pip with
// the interpreter's own unattended installer.
type payloadBuilder struct {
	opts Options
}

func newPlatformBuilder(opts Options) Builder {
	return &payloadBuilder{opts: opts}
}

func (b *payloadBuilder) Build(ctx context.Context, req Request) (Result, error) {
	tools := filepath.Join(req.SourceDir, "tools")
	if _, err := os.Stat(filepath.Join(tools, "python.exe")); err != nil {
		return Result{}, &BuildFailedError{Step: "layout", ExitStatus: -1, Err: fmt.Errorf("payload has no tools/python.exe: %w", err)}
	}
	if err := os.RemoveAll(req.DestDir); err != nil {
		return Result{}, &BuildFailedError{Step: "layout", ExitStatus: -1, Err: err}
	}
	if err := os.MkdirAll(req.DestDir, 0o755); err != nil {
		return Result{}, &BuildFailedError{Step: "layout", ExitStatus: -1, Err: err}
	}
	bin := filepath.Join(req.DestDir, "bin")
	if err := os.Rename(tools, bin); err != nil {
		return Result{}, &BuildFailedError{Step: "layout", ExitStatus: -1, Err: err}
	}

	steps := []step{{
		name:    "ensurepip",
		command: filepath.Join(bin, "python.exe"),
		args:    []string{"-m", "ensurepip", "--default-pip"},
		dir:     req.DestDir,
	}}
	if err := runSteps(ctx, b.opts.Runner, b.opts.Logger, req.Log, steps); err != nil {
		return Result{}, err
	}
	return Result{Root: req.DestDir}, nil
}
