//go:build !windows

package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// sourceBuilder runs configure, make and make install against a source tree.
type sourceBuilder struct {
	opts Options
}

func newPlatformBuilder(opts Options) Builder {
	return &sourceBuilder{opts: opts}
}

var compilers = []string{"cc", "gcc", "clang"}

func (b *sourceBuilder) Build(ctx context.Context, req Request) (Result, error) {
	if err := b.checkPrerequisites(); err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(req.DestDir, 0o755); err != nil {
		return Result{}, &BuildFailedError{Step: "prepare", ExitStatus: -1, Err: err}
	}

	jobs := b.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	configureArgs := append([]string{"--prefix=" + req.Prefix}, b.opts.ConfigureArgs...)
	steps := []step{
		{name: "configure", command: "./configure", args: configureArgs, dir: req.SourceDir},
		{name: "make", command: "make", args: []string{"-j" + strconv.Itoa(jobs)}, dir: req.SourceDir},
		{name: "install", command: "make", args: []string{"install", "DESTDIR=" + req.DestDir}, dir: req.SourceDir},
	}
	if err := runSteps(ctx, b.opts.Runner, b.opts.Logger, req.Log, steps); err != nil {
		return Result{}, err
	}

	root := filepath.Join(req.DestDir, req.Prefix)
	bin := filepath.Join(root, "bin")
	if _, err := os.Stat(filepath.Join(bin, "python3")); err != nil {
		if _, err2 := os.Stat(filepath.Join(bin, "python")); err2 != nil {
			return Result{}, &BuildFailedError{Step: "install", ExitStatus: -1, Err: fmt.Errorf("no interpreter under %s: %w", bin, err)}
		}
	}
	if err := linkUnversioned(bin); err != nil {
		return Result{}, &BuildFailedError{Step: "link", ExitStatus: -1, Err: err}
	}
	return Result{Root: root}, nil
}

func (b *sourceBuilder) checkPrerequisites() error {
	if _, err := b.opts.LookPath("make"); err != nil {
		return &BuildFailedError{Step: "prerequisites", ExitStatus: -1, Err: fmt.Errorf("make not found: %w", err)}
	}
	for _, cc := range compilers {
		if _, err := b.opts.LookPath(cc); err == nil {
			return nil
		}
	}
	return &BuildFailedError{Step: "prerequisites", ExitStatus: -1, Err: errors.New("no C compiler found (tried cc, gcc, clang)")}
}

// linkUnversioned adds python and pip next to python3 and pip3 when a build
// only installed the versioned names.
func linkUnversioned(bin string) error {
	for _, pair := range [][2]string{{"python", "python3"}, {"pip", "pip3"}} {
		link := filepath.Join(bin, pair[0])
		if _, err := os.Lstat(link); err == nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(bin, pair[1])); err != nil {
			continue
		}
		if err := os.Symlink(pair[1], link); err != nil {
			return fmt.Errorf("link %s: %w", link, err)
		}
	}
	return nil
}
