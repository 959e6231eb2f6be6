package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pycors/internal/version"
)

// Scan lists the managed toolchains directly under installedDir. A child
// directory qualifies only when its name is a strict version and it holds an
// interpreter binary; anything else (lock files, partial trees) is skipped.
// The result is sorted ascending and holds at most one entry per version.
func Scan(installedDir string) ([]Toolchain, error) {
	entries, err := os.ReadDir(installedDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", installedDir, err)
	}

	var found []Toolchain
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tc, ok := Load(filepath.Join(installedDir, entry.Name()))
		if !ok {
			continue
		}
		found = append(found, tc)
	}
	return dedupe(found), nil
}

// Load validates a single managed toolchain directory.
func Load(dir string) (Toolchain, bool) {
	v, err := version.ParseVersion(filepath.Base(dir))
	if err != nil {
		return Toolchain{}, false
	}
	tc := Toolchain{
		Version: v,
		Dir:     dir,
		BinDir:  filepath.Join(dir, "bin"),
		Origin:  OriginManaged,
	}
	if _, ok := tc.Interpreter(); !ok {
		return Toolchain{}, false
	}
	return tc, true
}

// Find returns the managed toolchain for v, if installed.
func Find(installedDir string, v version.Version) (Toolchain, bool) {
	return Load(filepath.Join(installedDir, v.String()))
}

func dedupe(in []Toolchain) []Toolchain {
	sortToolchains(in)
	out := in[:0]
	for i, tc := range in {
		if i > 0 && out[len(out)-1].Version.Equal(tc.Version) {
			continue
		}
		out = append(out, tc)
	}
	return out
}

func sortToolchains(tcs []Toolchain) {
	sort.SliceStable(tcs, func(i, j int) bool { return tcs[i].Version.Less(tcs[j].Version) })
}

const discoverTimeout = 2 * time.Second

// Discover looks for interpreters on the given PATH value, skipping any
// directory under one of the excluded roots (the shims directory and the
// managed root). Found interpreters carry OriginDiscovered.
func Discover(ctx context.Context, pathEnv string, exclude []string) []Toolchain {
	seenPaths := map[string]bool{}
	var found []Toolchain
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" || underAny(dir, exclude) {
			continue
		}
		for _, name := range interpreterNames() {
			candidate := filepath.Join(dir, name)
			if !isExecutable(candidate) {
				continue
			}
			real, err := filepath.EvalSymlinks(candidate)
			if err != nil {
				real = candidate
			}
			if seenPaths[real] || underAny(real, exclude) {
				continue
			}
			seenPaths[real] = true

			v, err := probeVersion(ctx, candidate)
			if err != nil {
				continue
			}
			found = append(found, Toolchain{
				Version: v,
				Dir:     dir,
				BinDir:  dir,
				Origin:  OriginDiscovered,
			})
		}
	}
	// PATH order decides which duplicate survives, so dedupe before sorting.
	seen := map[string]bool{}
	unique := found[:0]
	for _, tc := range found {
		key := tc.Version.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, tc)
	}
	sortToolchains(unique)
	return unique
}

func probeVersion(ctx context.Context, path string) (version.Version, error) {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	// Python 2 prints the banner on stderr.
	output, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return version.Version{}, fmt.Errorf("%s --version: %w", path, err)
	}
	return version.FromPython(firstLine(strings.TrimSpace(string(output))))
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func underAny(path string, roots []string) bool {
	clean := filepath.Clean(path)
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if clean == root {
			return true
		}
		rel, err := filepath.Rel(root, clean)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
