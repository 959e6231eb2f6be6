package install

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"pycors/internal/build"
	"pycors/internal/toolchain"
)

// ReadExtraPackages lists the package specifiers in path, skipping blank and
// comment lines. A missing file lists nothing.
func ReadExtraPackages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var pkgs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pkgs = append(pkgs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return pkgs, nil
}

// installExtraPackages runs the toolchain's pip once per listed package.
// Failures are reported and skipped.
func (i *Installer) installExtraPackages(ctx context.Context, tc toolchain.Toolchain) []string {
	path := i.ExtraPackagesFile
	if path == "" {
		path = i.Layout.ExtraPackages
	}
	pkgs, err := ReadExtraPackages(path)
	if err != nil {
		i.logger().Warnf("extra packages: %v", err)
		return nil
	}
	if len(pkgs) == 0 {
		return nil
	}
	interpreter, ok := tc.Interpreter()
	if !ok {
		i.logger().Warnf("extra packages: no interpreter in %s", tc.BinDir)
		return pkgs
	}
	runner := i.Runner
	if runner == nil {
		runner = build.CmdRunner{}
	}

	i.emit(Event{Version: tc.Version, Stage: StagePackages})
	var failed []string
	for _, pkg := range pkgs {
		i.logger().Infof("installing %s into python %s", pkg, tc.Version)
		if _, err := runner.Run(ctx, interpreter, []string{"-m", "pip", "install", pkg}, build.RunOptions{}); err != nil {
			i.logger().Warnf("pip install %s: %v", pkg, err)
			failed = append(failed, pkg)
		}
	}
	var stageErr error
	if len(failed) > 0 {
		stageErr = fmt.Errorf("failed to install %s", strings.Join(failed, ", "))
	}
	i.emit(Event{Version: tc.Version, Stage: StagePackages, Done: true, Err: stageErr})
	return failed
}
