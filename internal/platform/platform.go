package platform

import (
	"runtime"
	"strings"
)

// Platform identifies an operating system and CPU architecture pair.
type Platform struct {
	OS   string
	Arch string
}

// Current returns the platform the binary was compiled for.
func Current() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Key returns the "<os>-<arch>" form used for cache directory names.
func (p Platform) Key() string {
	return p.OS + "-" + p.Arch
}

// IsWindows reports whether the platform is Windows.
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// ArchiveExt returns the file extension of release archives for the platform.
func (p Platform) ArchiveExt() string {
	if p.IsWindows() {
		return "zip"
	}
	return "tgz"
}

// ExecutableName appends ".exe" on Windows.
func (p Platform) ExecutableName(base string) string {
	if p.IsWindows() && !strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base + ".exe"
	}
	return base
}

// ToolName strips a trailing ".exe" so that "pip.exe" and "pip" compare equal.
func ToolName(base string) string {
	if len(base) > 4 && strings.EqualFold(base[len(base)-4:], ".exe") {
		return base[:len(base)-4]
	}
	return base
}
