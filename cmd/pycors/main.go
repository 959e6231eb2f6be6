// Command pycors is both the version manager CLI and, when started through a
// link in the shims directory, the dispatcher for that tool name.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"pycors/internal/cli"
	"pycors/internal/platform"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, argv []string) int {
	if isManagerName(argv[0]) {
		return cli.Execute(ctx, argv[1:])
	}
	return cli.Shim(ctx, argv[0], argv[1:])
}

// isManagerName reports whether argv0 names the manager itself, including
// renamed release binaries such as pycors-linux-amd64. Shim links carry tool
// names (python3, pip) and never start with "pycors".
func isManagerName(argv0 string) bool {
	return strings.HasPrefix(strings.ToLower(platform.ToolName(filepath.Base(argv0))), "pycors")
}
