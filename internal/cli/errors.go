package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pycors/internal/exitcode"
	"pycors/internal/shim"
)

// ExitError carries an explicit exit status. A nil Err exits quietly, which
// is how a child's own non-zero status is passed through.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode reports Code.
func (e *ExitError) ExitCode() int { return e.Code }

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &ExitError{Code: exitcode.Usage, Err: err}
		}
		return nil
	}
}

// Report prints err with any install guidance it carries and returns the
// exit status for it.
func Report(w io.Writer, err error) int {
	if err == nil {
		return exitcode.OK
	}
	var child *shim.ChildExitError
	if errors.As(err, &child) {
		return child.Code
	}

	code := exitcode.FromError(err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Err == nil {
			return code
		}
	}

	fmt.Fprintf(w, "error: %v\n", err)
	var hinted interface{ Hint() string }
	if errors.As(err, &hinted) {
		fmt.Fprintf(w, "hint: %s\n", hinted.Hint())
	}
	return code
}
