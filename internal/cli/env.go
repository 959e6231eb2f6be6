package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"pycors/internal/build"
	"pycors/internal/config"
	"pycors/internal/fetch"
	"pycors/internal/install"
	"pycors/internal/logx"
	"pycors/internal/paths"
	"pycors/internal/pin"
	"pycors/internal/platform"
	"pycors/internal/resolve"
	"pycors/internal/shim"
	"pycors/internal/toolchain"
)

// environment is what every command needs: where the managed root is, what
// the user configured, and where to log.
type environment struct {
	layout paths.Layout
	cfg    config.Config
	logger *log.Logger
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	layout, err := paths.Resolve()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(layout.ConfigFile)
	if err != nil {
		return nil, err
	}
	logger := logx.New(cmd.ErrOrStderr(), cfg.LogLevel, verbose)
	logger.Debugf("managed root %s", layout.Root)
	return &environment{layout: layout, cfg: cfg, logger: logger}, nil
}

// active resolves the pin governing cwd against a fresh scan.
func (e *environment) active(cwd string) (pin.File, resolve.Result, error) {
	file, err := pin.Load(cwd, e.cfg.DefaultSpecifier())
	if err != nil {
		return pin.File{}, resolve.Result{}, err
	}
	installed, err := toolchain.Scan(e.layout.InstalledDir)
	if err != nil {
		return pin.File{}, resolve.Result{}, err
	}
	return file, resolve.Resolve(file.Specifier, installed), nil
}

func (e *environment) fetcher(progress func(fetch.Progress)) *fetch.Fetcher {
	return fetch.New(fetch.Options{
		CacheDir: e.layout.CacheDir,
		Mirror:   e.cfg.Download.Mirror,
		NuGet:    e.cfg.Download.NuGet,
		Retries:  e.cfg.Download.Retries,
		Timeout:  e.cfg.Download.Timeout,
		Logger:   e.logger,
		Progress: progress,
	})
}

func (e *environment) installer(progress func(fetch.Progress), events func(install.Event)) *install.Installer {
	return &install.Installer{
		Layout:   e.layout,
		Platform: platform.Current(),
		Fetcher:  e.fetcher(progress),
		Builder: build.New(build.Options{
			Jobs:          e.cfg.Install.Jobs,
			ConfigureArgs: e.cfg.Install.ConfigureArgs,
			Logger:        e.logger,
		}),
		LockPolicy:        e.cfg.Install.LockPolicy,
		ExtraPackagesFile: e.layout.ResolvePath(e.cfg.Install.ExtraPackagesFile),
		RefreshShims: func() error {
			_, err := shim.Refresh(e.layout)
			return err
		},
		Logger: e.logger,
		Events: events,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return cwd, nil
}
