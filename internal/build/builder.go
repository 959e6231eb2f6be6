// Package build turns an extracted release into an installed interpreter
// tree. Unix compiles from source; Windows lays out the prebuilt payload and
// bootstraps pip. The variant is chosen at compile time.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"pycors/internal/logx"
	"pycors/internal/version"
)

// Request describes one build.
type Request struct {
	// SourceDir is the extracted archive root.
	SourceDir string
	Version   version.Version
	// Prefix is the final install location baked into the interpreter.
	Prefix string
	// DestDir is the staging area the tree is written into.
	DestDir string
	// Log receives the combined output of every step.
	Log io.Writer
}

// Result points at the finished tree, ready to be renamed onto Prefix.
type Result struct {
	Root string
}

// Builder produces an installed interpreter tree from extracted sources.
type Builder interface {
	Build(ctx context.Context, req Request) (Result, error)
}

// Options configures the platform builder.
type Options struct {
	Runner        Runner
	Jobs          int
	ConfigureArgs []string
	Logger        logx.Logger
	LookPath      func(string) (string, error)
}

// New returns the builder for the platform the binary was compiled for.
func New(opts Options) Builder {
	if opts.Runner == nil {
		opts.Runner = CmdRunner{}
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	opts.Logger = logx.OrNop(opts.Logger)
	return newPlatformBuilder(opts)
}

// BuildFailedError names the failing step. ExitStatus is -1 when the step
// never produced an exit code (missing prerequisite, layout problem).
type BuildFailedError struct {
	Step       string
	ExitStatus int
	Output     string
	Err        error
}

func (e *BuildFailedError) Error() string {
	msg := fmt.Sprintf("build step %q failed", e.Step)
	if e.ExitStatus >= 0 {
		msg += fmt.Sprintf(" with exit status %d", e.ExitStatus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildFailedError) Unwrap() error { return e.Err }

const outputTailLines = 30

type step struct {
	name    string
	command string
	args    []string
	dir     string
}

// runSteps runs steps in order, stopping at the first failure.
func runSteps(ctx context.Context, runner Runner, logger logx.Logger, log io.Writer, steps []step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return &BuildFailedError{Step: s.name, ExitStatus: -1, Err: err}
		}
		logger.Infof("%s: %s %s", s.name, s.command, strings.Join(s.args, " "))
		out := &outputLog{tee: log}
		if log != nil {
			fmt.Fprintf(log, "==> %s: %s %s\n", s.name, s.command, strings.Join(s.args, " "))
		}
		_, err := runner.Run(ctx, s.command, s.args, RunOptions{Dir: s.dir, Stdout: out, Stderr: out})
		if err != nil {
			return &BuildFailedError{
				Step:       s.name,
				ExitStatus: exitStatus(err),
				Output:     tail(out.String(), outputTailLines),
				Err:        err,
			}
		}
	}
	return nil
}

func exitStatus(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

func tail(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
