// Package toolchain enumerates interpreter installations: the managed ones
// under the install root and, for reporting, interpreters found on PATH.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"pycors/internal/platform"
	"pycors/internal/version"
)

// Origin records where a toolchain was found.
type Origin string

const (
	OriginManaged    Origin = "managed"
	OriginDiscovered Origin = "discovered"
)

// InfoFileName marks a tree installed by pycors.
const InfoFileName = "installed_by_pycors.txt"

// Toolchain is one installed interpreter.
type Toolchain struct {
	Version version.Version `json:"version"`
	Dir     string          `json:"dir"`
	BinDir  string          `json:"bin_dir"`
	Origin  Origin          `json:"origin"`
}

// ExecutableDirs lists the directories searched for tool binaries, in order.
func (t Toolchain) ExecutableDirs() []string {
	if runtime.GOOS == "windows" {
		return []string{t.BinDir, filepath.Join(t.BinDir, "Scripts")}
	}
	return []string{t.BinDir}
}

// LookupTool returns the path of the named tool inside the toolchain.
func (t Toolchain) LookupTool(name string) (string, bool) {
	exe := platform.Current().ExecutableName(platform.ToolName(name))
	for _, dir := range t.ExecutableDirs() {
		candidate := filepath.Join(dir, exe)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Interpreter returns the path of the interpreter binary.
func (t Toolchain) Interpreter() (string, bool) {
	for _, name := range interpreterNames() {
		candidate := filepath.Join(t.BinDir, name)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Tools lists the executable names present in the toolchain, without ".exe".
func (t Toolchain) Tools() ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, dir := range t.ExecutableDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !isExecutable(filepath.Join(dir, entry.Name())) {
				continue
			}
			name := platform.ToolName(entry.Name())
			if runtime.GOOS == "windows" && name == entry.Name() {
				continue
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func interpreterNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"python.exe"}
	}
	return []string{"python3", "python"}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
