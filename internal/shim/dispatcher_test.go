package shim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"pycors/internal/paths"
	"pycors/internal/pin"
	"pycors/internal/resolve"
	"pycors/internal/version"
)

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func installFake(t *testing.T, layout paths.Layout, v string, tools ...string) {
	t.Helper()
	bin := filepath.Join(layout.InstalledDir, v, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	interpreter := "python3"
	if runtime.GOOS == "windows" {
		interpreter = "python"
	}
	for _, tool := range append([]string{interpreter}, tools...) {
		if err := os.WriteFile(filepath.Join(bin, exeName(tool)), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

// isolatedProject returns a working directory with no pin file above it.
func isolatedProject(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "project", "src")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := pin.Find(dir); ok {
		t.Skip("pin file above temp dir")
	}
	return dir
}

type execCall struct {
	path string
	argv []string
	env  []string
}

func recordExec(calls *[]execCall) ExecFunc {
	return func(_ context.Context, path string, argv []string, env []string) error {
		*calls = append(*calls, execCall{path: path, argv: argv, env: env})
		return nil
	}
}

func TestDispatchUsesPinnedVersion(t *testing.T) {
	layout := paths.New(t.TempDir())
	installFake(t, layout, "3.6.8", "pip")
	installFake(t, layout, "3.7.1", "pip")
	installFake(t, layout, "3.7.2", "pip")

	cwd := isolatedProject(t)
	if _, err := pin.Write(filepath.Dir(cwd), version.MustParseSpecifier("~3.7")); err != nil {
		t.Fatal(err)
	}

	var calls []execCall
	d := &Dispatcher{Layout: layout, Exec: recordExec(&calls)}
	env := []string{"PATH=/usr/bin", "HOME=/home/user"}
	if err := d.Dispatch(context.Background(), "/home/user/.pycors/shims/"+exeName("pip"), []string{"install", "requests"}, cwd, env); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one exec, got %d", len(calls))
	}
	want := filepath.Join(layout.InstalledDir, "3.7.2", "bin", exeName("pip"))
	if calls[0].path != want {
		t.Fatalf("exec path = %s, want %s", calls[0].path, want)
	}
	if len(calls[0].argv) != 3 || calls[0].argv[0] != want || calls[0].argv[1] != "install" || calls[0].argv[2] != "requests" {
		t.Fatalf("argv = %v", calls[0].argv)
	}
	if len(calls[0].env) != 2 || calls[0].env[1] != "HOME=/home/user" {
		t.Fatalf("env should pass through unchanged, got %v", calls[0].env)
	}
}

func TestResolveWithoutPinOrInstallsReportsDefault(t *testing.T) {
	layout := paths.New(t.TempDir())
	cwd := isolatedProject(t)

	var calls []execCall
	d := &Dispatcher{Layout: layout, Exec: recordExec(&calls)}
	err := d.Dispatch(context.Background(), "pip", nil, cwd, nil)

	var notInstalled *resolve.ToolchainNotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("expected ToolchainNotInstalledError, got %v", err)
	}
	if notInstalled.Requested != "latest" {
		t.Fatalf("requested = %q", notInstalled.Requested)
	}
	if len(calls) != 0 {
		t.Fatal("nothing should be executed")
	}
}

func TestResolveExactPinNotInstalled(t *testing.T) {
	layout := paths.New(t.TempDir())
	installFake(t, layout, "3.6.8")
	cwd := isolatedProject(t)
	if err := os.WriteFile(filepath.Join(cwd, pin.FileName), []byte("= 3.6.9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := &Dispatcher{Layout: layout}
	_, err := d.Resolve("python", cwd)
	var notInstalled *resolve.ToolchainNotInstalledError
	if !errors.As(err, &notInstalled) || notInstalled.Requested != "3.6.9" {
		t.Fatalf("expected not installed 3.6.9, got %v", err)
	}
}

func TestResolveDefaultSpecifier(t *testing.T) {
	layout := paths.New(t.TempDir())
	installFake(t, layout, "3.6.8")
	installFake(t, layout, "3.8.1")
	cwd := isolatedProject(t)

	d := &Dispatcher{Layout: layout, Default: version.MustParseSpecifier("3.6")}
	target, err := d.Resolve("python3", cwd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if target.Toolchain.Version.String() != "3.6.8" || target.Pin.Path != "" {
		t.Fatalf("unexpected target %+v", target)
	}
}

func TestResolveToolMissing(t *testing.T) {
	layout := paths.New(t.TempDir())
	installFake(t, layout, "3.7.2")
	cwd := isolatedProject(t)

	d := &Dispatcher{Layout: layout}
	_, err := d.Resolve(exeName("pip"), cwd)
	var missing *ToolNotFoundError
	if !errors.As(err, &missing) || missing.Tool != "pip" || missing.Version.String() != "3.7.2" {
		t.Fatalf("expected ToolNotFoundError for pip, got %v", err)
	}
}

func TestResolveSeesInstallsBetweenCalls(t *testing.T) {
	layout := paths.New(t.TempDir())
	cwd := isolatedProject(t)
	d := &Dispatcher{Layout: layout}

	if _, err := d.Resolve("python3", cwd); err == nil {
		t.Fatal("expected failure before install")
	}
	installFake(t, layout, "3.7.2")
	target, err := d.Resolve("python3", cwd)
	if err != nil {
		t.Fatalf("resolve after install: %v", err)
	}
	if target.Toolchain.Version.String() != "3.7.2" {
		t.Fatalf("unexpected version %s", target.Toolchain.Version)
	}
}

func TestResolveMalformedPin(t *testing.T) {
	layout := paths.New(t.TempDir())
	cwd := isolatedProject(t)
	if err := os.WriteFile(filepath.Join(cwd, pin.FileName), []byte("three-seven\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := &Dispatcher{Layout: layout}
	_, err := d.Resolve("python", cwd)
	var malformed *version.MalformedSpecifierError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected malformed specifier, got %v", err)
	}
}

type panicSpecifier struct{ version.Latest }

func (panicSpecifier) Match(version.Version) bool { panic("boom") }

func TestResolveRecoversPanics(t *testing.T) {
	layout := paths.New(t.TempDir())
	installFake(t, layout, "3.7.2")
	cwd := isolatedProject(t)

	d := &Dispatcher{Layout: layout, Default: panicSpecifier{}}
	_, err := d.Resolve("python", cwd)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
}
