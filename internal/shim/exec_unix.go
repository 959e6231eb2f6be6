//go:build !windows

package shim

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// Exec replaces the current process image. Exit status and standard streams
// then belong to the target.
func Exec(_ context.Context, path string, argv []string, env []string) error {
	if err := unix.Exec(path, argv, env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
