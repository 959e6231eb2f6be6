package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"pycors/internal/build"
	"pycors/internal/extract"
	"pycors/internal/fetch"
	"pycors/internal/install"
	"pycors/internal/resolve"
	"pycors/internal/shim"
	"pycors/internal/version"
)

type childExit struct{ code int }

func (c childExit) Error() string { return fmt.Sprintf("exit status %d", c.code) }
func (c childExit) ExitCode() int { return c.code }

func TestFromError(t *testing.T) {
	_, malformed := version.ParseSpecifier("banana")
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":           {nil, OK},
		"generic":       {errors.New("boom"), Failure},
		"malformed":     {fmt.Errorf("pin: %w", malformed), MalformedSpecifier},
		"not-installed": {&resolve.ToolchainNotInstalledError{Requested: "3.6.9"}, NotInstalled},
		"tool-missing":  {&shim.ToolNotFoundError{Tool: "pip"}, ToolNotFound},
		"download":      {&fetch.DownloadFailedError{URL: "https://example.com", Attempts: 4, Err: errors.New("503")}, DownloadFailed},
		"extraction":    {&extract.ExtractionFailedError{Archive: "a.tgz", Err: errors.New("unexpected EOF")}, ExtractionFailed},
		"build":         {fmt.Errorf("install: %w", &build.BuildFailedError{Step: "make", ExitStatus: 2}), BuildFailed},
		"in-progress":   {&install.LockHeldError{Path: "3.7.2.lock", PID: 42}, InstallInProgress},
		"child":         {childExit{code: 42}, 42},
		"child-zero":    {childExit{code: 0}, Failure},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := FromError(tc.err); got != tc.want {
				t.Fatalf("FromError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestCodesAreDistinct(t *testing.T) {
	codes := []int{OK, Failure, Usage, MalformedSpecifier, NotInstalled, ToolNotFound, DownloadFailed, ExtractionFailed, BuildFailed, InstallInProgress}
	seen := map[int]bool{}
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
}
