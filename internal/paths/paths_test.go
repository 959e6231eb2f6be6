package paths

import (
	"os"
	"path/filepath"
	"testing"

	"pycors/internal/platform"
	"pycors/internal/version"
)

func TestResolveFromEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv(HomeEnv, root)

	layout, err := Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if layout.Root != root {
		t.Fatalf("expected root %s, got %s", root, layout.Root)
	}
	if layout.InstalledDir != filepath.Join(root, "installed") {
		t.Fatalf("unexpected installed dir %s", layout.InstalledDir)
	}
	if layout.ExtraPackages != filepath.Join(root, "extra-packages-to-install.txt") {
		t.Fatalf("unexpected extra packages file %s", layout.ExtraPackages)
	}
}

func TestResolveDefaultsToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, "  ")
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	layout, err := Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if layout.Root != filepath.Join(home, ".pycors") {
		t.Fatalf("expected default root under home, got %s", layout.Root)
	}
}

func TestVersionedLocations(t *testing.T) {
	layout := New("/opt/pycors")
	v := version.MustParse("3.7.2")

	if got := layout.ToolchainDir(v); got != filepath.Join("/opt/pycors", "installed", "3.7.2") {
		t.Fatalf("toolchain dir = %s", got)
	}
	if got := layout.LockFile(v); got != filepath.Join("/opt/pycors", "installed", "3.7.2.lock") {
		t.Fatalf("lock file = %s", got)
	}
	if got := layout.StagingFor(v); got != filepath.Join("/opt/pycors", "staging", "3.7.2") {
		t.Fatalf("staging = %s", got)
	}
	p := platform.Platform{OS: "linux", Arch: "amd64"}
	if got := layout.PlatformCacheDir(p); got != filepath.Join("/opt/pycors", "cache", "linux-amd64") {
		t.Fatalf("cache dir = %s", got)
	}
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	layout := New(root)

	if got := layout.ResolvePath("extra.txt"); got != filepath.Join(root, "extra.txt") {
		t.Fatalf("relative path = %s", got)
	}
	abs := filepath.Join(t.TempDir(), "packages.txt")
	if got := layout.ResolvePath(abs); got != abs {
		t.Fatalf("absolute path = %s", got)
	}
	if got := layout.ResolvePath(" "); got != "" {
		t.Fatalf("blank path = %q", got)
	}
}

func TestEnsure(t *testing.T) {
	layout := New(filepath.Join(t.TempDir(), "root"))
	if err := layout.Ensure(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, dir := range []string{layout.InstalledDir, layout.CacheDir, layout.StagingDir, layout.ShimsDir, layout.LogsDir} {
		ok, err := DirExists(dir)
		if err != nil || !ok {
			t.Fatalf("expected %s to exist", dir)
		}
	}
	ok, err := FileExists(layout.ConfigFile)
	if err != nil || ok {
		t.Fatalf("config file should not be created: %v %v", ok, err)
	}
	if err := os.WriteFile(layout.ConfigFile, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, _ := FileExists(layout.ConfigFile); !ok {
		t.Fatal("config file should now exist")
	}
}
