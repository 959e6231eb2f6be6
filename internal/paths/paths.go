package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pycors/internal/platform"
	"pycors/internal/version"
)

// HomeEnv overrides the managed root location.
const HomeEnv = "PYCORS_HOME"

// Layout captures canonical locations under the managed root.
type Layout struct {
	Root          string
	InstalledDir  string
	CacheDir      string
	StagingDir    string
	ShimsDir      string
	LogsDir       string
	ConfigFile    string
	ExtraPackages string
}

// Resolve determines the managed root from PYCORS_HOME, falling back to
// ~/.pycors when the variable is unset or blank.
func Resolve() (Layout, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		root, err := filepath.Abs(home)
		if err != nil {
			return Layout{}, fmt.Errorf("resolve %s: %w", HomeEnv, err)
		}
		return New(root), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("detect user home: %w", err)
	}
	return New(filepath.Join(home, ".pycors")), nil
}

// New builds the layout rooted at root.
func New(root string) Layout {
	return Layout{
		Root:          root,
		InstalledDir:  filepath.Join(root, "installed"),
		CacheDir:      filepath.Join(root, "cache"),
		StagingDir:    filepath.Join(root, "staging"),
		ShimsDir:      filepath.Join(root, "shims"),
		LogsDir:       filepath.Join(root, "logs"),
		ConfigFile:    filepath.Join(root, "config.yaml"),
		ExtraPackages: filepath.Join(root, "extra-packages-to-install.txt"),
	}
}

// ToolchainDir is where version v is published.
func (l Layout) ToolchainDir(v version.Version) string {
	return filepath.Join(l.InstalledDir, v.String())
}

// LockFile guards installs of version v.
func (l Layout) LockFile(v version.Version) string {
	return filepath.Join(l.InstalledDir, v.String()+".lock")
}

// StagingFor is the scratch area for an in-flight install of v.
func (l Layout) StagingFor(v version.Version) string {
	return filepath.Join(l.StagingDir, v.String())
}

// PlatformCacheDir holds archives fetched for p.
func (l Layout) PlatformCacheDir(p platform.Platform) string {
	return filepath.Join(l.CacheDir, p.Key())
}

// ResolvePath anchors a relative config value at the managed root.
func (l Layout) ResolvePath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(l.Root, value)
}

// Ensure creates the standard directory hierarchy.
func (l Layout) Ensure() error {
	dirs := []string{l.Root, l.InstalledDir, l.CacheDir, l.StagingDir, l.ShimsDir, l.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
