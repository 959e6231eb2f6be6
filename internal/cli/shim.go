package cli

import (
	"context"
	"os"

	"pycors/internal/config"
	"pycors/internal/logx"
	"pycors/internal/paths"
	"pycors/internal/shim"
)

// Shim runs the dispatcher for a process started under a linked tool name
// and returns the exit status when the target could not take over.
func Shim(ctx context.Context, invoked string, args []string) int {
	layout, err := paths.Resolve()
	if err != nil {
		return Report(os.Stderr, err)
	}
	cfg, err := config.Load(layout.ConfigFile)
	if err != nil {
		return Report(os.Stderr, err)
	}
	cwd, err := workingDir()
	if err != nil {
		return Report(os.Stderr, err)
	}

	d := &shim.Dispatcher{
		Layout:  layout,
		Default: cfg.DefaultSpecifier(),
		Logger:  logx.New(os.Stderr, cfg.LogLevel, false),
	}
	return Report(os.Stderr, d.Dispatch(ctx, invoked, args, cwd, os.Environ()))
}
