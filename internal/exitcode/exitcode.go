// Package exitcode maps failures to the documented process exit statuses.
//
//	0  success
//	1  generic failure
//	2  usage error
//	3  malformed version specifier
//	4  toolchain not installed
//	5  tool not found in toolchain
//	6  download failed
//	7  extraction failed
//	8  build failed
//	9  install already in progress
package exitcode

import (
	"errors"

	"pycors/internal/build"
	"pycors/internal/extract"
	"pycors/internal/fetch"
	"pycors/internal/install"
	"pycors/internal/resolve"
	"pycors/internal/shim"
	"pycors/internal/version"
)

const (
	OK                 = 0
	Failure            = 1
	Usage              = 2
	MalformedSpecifier = 3
	NotInstalled       = 4
	ToolNotFound       = 5
	DownloadFailed     = 6
	ExtractionFailed   = 7
	BuildFailed        = 8
	InstallInProgress  = 9
)

// FromError classifies err. A child process exit status found in the chain
// is passed through unchanged.
func FromError(err error) int {
	if err == nil {
		return OK
	}

	var (
		malformed    *version.MalformedSpecifierError
		notInstalled *resolve.ToolchainNotInstalledError
		toolMissing  *shim.ToolNotFoundError
		download     *fetch.DownloadFailedError
		extraction   *extract.ExtractionFailedError
		buildErr     *build.BuildFailedError
		child        interface{ ExitCode() int }
	)
	switch {
	case errors.As(err, &malformed):
		return MalformedSpecifier
	case errors.As(err, &notInstalled):
		return NotInstalled
	case errors.As(err, &toolMissing):
		return ToolNotFound
	case errors.As(err, &download):
		return DownloadFailed
	case errors.As(err, &extraction):
		return ExtractionFailed
	case errors.As(err, &buildErr):
		return BuildFailed
	case errors.Is(err, install.ErrInstallInProgress):
		return InstallInProgress
	case errors.As(err, &child):
		if code := child.ExitCode(); code > 0 {
			return code
		}
	}
	return Failure
}
