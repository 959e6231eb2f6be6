package shim

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"pycors/internal/paths"
	"pycors/internal/platform"
	"pycors/internal/toolchain"
)

// BaseNames are linked even before any toolchain is installed.
var BaseNames = []string{"python", "python3", "pip", "pip3", "pydoc3", "idle3", "2to3"}

// Names returns the base set plus every executable found in installed
// toolchains, sorted and without duplicates.
func Names(layout paths.Layout) ([]string, error) {
	seen := map[string]bool{}
	for _, name := range BaseNames {
		seen[name] = true
	}
	installed, err := toolchain.Scan(layout.InstalledDir)
	if err != nil {
		return nil, err
	}
	for _, tc := range installed {
		tools, err := tc.Tools()
		if err != nil {
			return nil, err
		}
		for _, tool := range tools {
			seen[tool] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		if name == "pycors" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Sync points <shims>/<name> at target for every name. Up-to-date links are
// left alone.
func Sync(layout paths.Layout, target string, names []string) ([]string, error) {
	if err := os.MkdirAll(layout.ShimsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create shims directory: %w", err)
	}
	p := platform.Current()
	var created []string
	for _, name := range names {
		path := filepath.Join(layout.ShimsDir, p.ExecutableName(name))
		changed, err := linkShim(target, path)
		if err != nil {
			return created, fmt.Errorf("shim %s: %w", name, err)
		}
		if changed {
			created = append(created, name)
		}
	}
	return created, nil
}

// Refresh syncs the full shim set to the running executable and returns the
// names whose links changed.
func Refresh(layout paths.Layout) ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	names, err := Names(layout)
	if err != nil {
		return nil, err
	}
	return Sync(layout, exe, names)
}
