//go:build windows

package shim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
)

// Exec runs path as a child with inherited standard streams and waits for it.
// Windows has no process-image replacement.
func Exec(ctx context.Context, path string, argv []string, env []string) error {
	// Console interrupts reach the child directly; the shim just waits.
	signal.Ignore(os.Interrupt)

	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ChildExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("run %s: %w", path, err)
}
