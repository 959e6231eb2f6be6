// Package resolve picks the toolchain that satisfies a version specifier.
package resolve

import (
	"fmt"

	"pycors/internal/toolchain"
	"pycors/internal/version"
)

// Result is the outcome of a resolution. Exactly one of Toolchain (when
// Matched) or Requested (when not) is meaningful.
type Result struct {
	Matched   bool
	Toolchain toolchain.Toolchain
	Requested string
	Specifier version.Specifier
}

// Err returns nil for a matched result and a *ToolchainNotInstalledError
// otherwise.
func (r Result) Err() error {
	if r.Matched {
		return nil
	}
	return &ToolchainNotInstalledError{Requested: r.Requested}
}

// ToolchainNotInstalledError reports a specifier no managed toolchain satisfies.
type ToolchainNotInstalledError struct {
	Requested string
}

func (e *ToolchainNotInstalledError) Error() string {
	return fmt.Sprintf("python %s is not installed", e.Requested)
}

// Hint is the install guidance printed alongside the error.
func (e *ToolchainNotInstalledError) Hint() string {
	return fmt.Sprintf("run `pycors install %s` to install it", e.Requested)
}

// Resolve filters candidates to managed toolchains matching spec and returns
// the highest. Discovered toolchains never satisfy a resolution. An exact
// specifier that matches nothing reports the exact version requested, never a
// nearby one.
func Resolve(spec version.Specifier, candidates []toolchain.Toolchain) Result {
	var (
		best  toolchain.Toolchain
		found bool
	)
	for _, tc := range candidates {
		if tc.Origin != toolchain.OriginManaged {
			continue
		}
		if !spec.Match(tc.Version) {
			continue
		}
		if !found || best.Version.Less(tc.Version) {
			best = tc
			found = true
		}
	}
	if found {
		return Result{Matched: true, Toolchain: best, Specifier: spec}
	}
	return Result{Requested: Requested(spec), Specifier: spec}
}

// Requested renders the version text reported for an unmatched specifier:
// the bare version for exact specifiers, the specifier text otherwise.
func Requested(spec version.Specifier) string {
	if exact, ok := spec.(version.Exact); ok {
		return exact.Version.String()
	}
	return spec.String()
}
