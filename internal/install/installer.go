// Package install materializes interpreter versions under the managed root:
// fetch, extract, build, then publish the finished tree with a rename.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pycors/internal/build"
	"pycors/internal/config"
	"pycors/internal/extract"
	"pycors/internal/logx"
	"pycors/internal/paths"
	"pycors/internal/platform"
	"pycors/internal/toolchain"
	"pycors/internal/version"
)

// Fetcher is the part of fetch.Fetcher the pipeline depends on.
type Fetcher interface {
	Fetch(ctx context.Context, v version.Version, p platform.Platform) (string, error)
	Invalidate(v version.Version, p platform.Platform) error
	Available(ctx context.Context, p platform.Platform) ([]version.Version, error)
}

// Stage names a pipeline step reported through Installer.Events.
type Stage string

const (
	StageLock     Stage = "lock"
	StageFetch    Stage = "fetch"
	StageExtract  Stage = "extract"
	StageBuild    Stage = "build"
	StagePublish  Stage = "publish"
	StagePackages Stage = "packages"
	StageShims    Stage = "shims"
)

// Event reports a stage starting (Done false) or finishing.
type Event struct {
	Version version.Version
	Stage   Stage
	Done    bool
	Err     error
	Detail  string
}

// Options tunes a single Install call.
type Options struct {
	// Force rebuilds even when the version is already installed.
	Force bool
}

// Installer wires the pipeline components together.
type Installer struct {
	Layout   paths.Layout
	Platform platform.Platform
	Fetcher  Fetcher
	Builder  build.Builder
	// Runner executes the interpreter's package installer.
	Runner build.Runner
	// LockPolicy is config.LockWait or config.LockFail.
	LockPolicy string
	LockPoll   time.Duration
	// ExtraPackagesFile overrides Layout.ExtraPackages when set.
	ExtraPackagesFile string
	// RefreshShims runs after a successful publish.
	RefreshShims func() error
	Logger       logx.Logger
	Events       func(Event)
}

func (i *Installer) emit(ev Event) {
	if i.Events != nil {
		i.Events(ev)
	}
}

func (i *Installer) logger() logx.Logger {
	return logx.OrNop(i.Logger)
}

// Install makes v available under the managed root and returns it. An
// existing intact install is returned as is unless opts.Force is set.
func (i *Installer) Install(ctx context.Context, v version.Version, opts Options) (toolchain.Toolchain, error) {
	if err := i.Layout.Ensure(); err != nil {
		return toolchain.Toolchain{}, err
	}

	i.emit(Event{Version: v, Stage: StageLock})
	release, err := acquireInstallLock(ctx, i.Layout.LockFile(v), i.LockPolicy != config.LockFail, i.LockPoll)
	if err != nil {
		i.emit(Event{Version: v, Stage: StageLock, Done: true, Err: err})
		return toolchain.Toolchain{}, err
	}
	defer release()
	i.emit(Event{Version: v, Stage: StageLock, Done: true})

	if !opts.Force {
		if tc, ok := toolchain.Find(i.Layout.InstalledDir, v); ok {
			i.logger().Infof("python %s already installed at %s", v, tc.Dir)
			return tc, nil
		}
	}

	tc, err := i.materialize(ctx, v)
	if err != nil {
		return toolchain.Toolchain{}, err
	}
	release()

	i.installExtraPackages(ctx, tc)
	if i.RefreshShims != nil {
		i.emit(Event{Version: v, Stage: StageShims})
		err := i.RefreshShims()
		if err != nil {
			i.logger().Warnf("refresh shims: %v", err)
		}
		i.emit(Event{Version: v, Stage: StageShims, Done: true, Err: err})
	}
	return tc, nil
}

func (i *Installer) materialize(ctx context.Context, v version.Version) (toolchain.Toolchain, error) {
	staging := i.Layout.StagingFor(v)
	srcDir := filepath.Join(staging, "src")
	imageDir := filepath.Join(staging, "image")

	i.emit(Event{Version: v, Stage: StageFetch})
	archive, err := i.Fetcher.Fetch(ctx, v, i.Platform)
	i.emit(Event{Version: v, Stage: StageFetch, Done: true, Err: err})
	if err != nil {
		return toolchain.Toolchain{}, err
	}

	i.emit(Event{Version: v, Stage: StageExtract})
	err = extract.Extract(extract.FormatFor(i.Platform), archive, srcDir)
	if err != nil {
		var failed *extract.ExtractionFailedError
		if errors.As(err, &failed) {
			if invErr := i.Fetcher.Invalidate(v, i.Platform); invErr != nil {
				i.logger().Warnf("invalidate cached archive: %v", invErr)
			}
		}
		i.emit(Event{Version: v, Stage: StageExtract, Done: true, Err: err})
		return toolchain.Toolchain{}, err
	}
	sourceRoot, err := extract.SingleRoot(srcDir)
	i.emit(Event{Version: v, Stage: StageExtract, Done: true, Err: err})
	if err != nil {
		return toolchain.Toolchain{}, fmt.Errorf("locate sources: %w", err)
	}

	if err := os.RemoveAll(imageDir); err != nil {
		return toolchain.Toolchain{}, fmt.Errorf("clear %s: %w", imageDir, err)
	}
	var buildLog io.Writer = io.Discard
	logFile, err := logx.OpenFile(i.Layout.LogsDir, "install-"+v.String())
	if err != nil {
		i.logger().Warnf("build log: %v", err)
	} else {
		defer logFile.Close()
		buildLog = logFile
		i.logger().Infof("build output is logged to %s", logFile.Name())
	}

	final := i.Layout.ToolchainDir(v)
	i.emit(Event{Version: v, Stage: StageBuild})
	res, err := i.Builder.Build(ctx, build.Request{
		SourceDir: sourceRoot,
		Version:   v,
		Prefix:    final,
		DestDir:   imageDir,
		Log:       buildLog,
	})
	detail := ""
	if logFile != nil {
		detail = logFile.Name()
	}
	i.emit(Event{Version: v, Stage: StageBuild, Done: true, Err: err, Detail: detail})
	if err != nil {
		return toolchain.Toolchain{}, err
	}

	i.emit(Event{Version: v, Stage: StagePublish})
	err = i.publish(v, res.Root, final)
	i.emit(Event{Version: v, Stage: StagePublish, Done: true, Err: err})
	if err != nil {
		return toolchain.Toolchain{}, err
	}
	if err := os.RemoveAll(staging); err != nil {
		i.logger().Warnf("remove staging %s: %v", staging, err)
	}

	tc, ok := toolchain.Load(final)
	if !ok {
		return toolchain.Toolchain{}, fmt.Errorf("published tree %s has no interpreter", final)
	}
	return tc, nil
}

// publish swaps the built tree into place. Readers see either the previous
// tree or the new one, never a partial directory.
func (i *Installer) publish(v version.Version, root, final string) error {
	info := fmt.Sprintf("%s\ninstalled %s\n", v, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(root, toolchain.InfoFileName), []byte(info), 0o644); err != nil {
		return fmt.Errorf("write install marker: %w", err)
	}

	aside := ""
	if _, err := os.Lstat(final); err == nil {
		aside = filepath.Join(i.Layout.StagingFor(v), "previous-"+strconv.Itoa(os.Getpid()))
		if err := os.RemoveAll(aside); err != nil {
			return fmt.Errorf("clear %s: %w", aside, err)
		}
		if err := os.Rename(final, aside); err != nil {
			return fmt.Errorf("move previous install aside: %w", err)
		}
	}
	if err := os.Rename(root, final); err != nil {
		if aside != "" {
			_ = os.Rename(aside, final)
		}
		return fmt.Errorf("publish %s: %w", final, err)
	}
	if aside != "" {
		if err := os.RemoveAll(aside); err != nil {
			i.logger().Warnf("remove previous install: %v", err)
		}
	}
	return nil
}

// NoReleaseError reports a specifier no published release satisfies.
type NoReleaseError struct {
	Requested string
}

func (e *NoReleaseError) Error() string {
	return fmt.Sprintf("no published python release matches %s", e.Requested)
}

// ResolveInstallable maps spec to the concrete version an install should
// fetch. Exact specifiers need no network; anything else picks the newest
// published release that matches.
func (i *Installer) ResolveInstallable(ctx context.Context, spec version.Specifier) (version.Version, error) {
	if exact, ok := spec.(version.Exact); ok {
		return exact.Version, nil
	}
	available, err := i.Fetcher.Available(ctx, i.Platform)
	if err != nil {
		return version.Version{}, fmt.Errorf("list available releases: %w", err)
	}
	var (
		best  version.Version
		found bool
	)
	for _, v := range available {
		if spec.Match(v) && (!found || best.Less(v)) {
			best, found = v, true
		}
	}
	if !found {
		return version.Version{}, &NoReleaseError{Requested: spec.String()}
	}
	return best, nil
}
