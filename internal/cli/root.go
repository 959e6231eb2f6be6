package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"pycors/internal/exitcode"
)

// Version is stamped at build time with -ldflags "-X pycors/internal/cli.Version=...".
var Version = "dev"

var (
	verbose    bool
	outputJSON bool
)

// Execute runs the root cobra command and returns the process exit status.
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, newRootCmd(), args)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		err = &ExitError{Code: exitcode.Usage, Err: err}
	}
	return Report(cmd.ErrOrStderr(), err)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pycors",
		Short:         "Pin, install and run Python interpreters per project",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitcode.Usage, Err: err}
	})

	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newSelectCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newShimsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
