package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pycors/internal/pin"
	"pycors/internal/resolve"
)

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the bin directory of the active Python version",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runPath,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the active Python version and where it is pinned",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runVersion,
	}
}

func runPath(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	file, res, err := env.active(cwd)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, newActiveReport(file, res))
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Toolchain.BinDir)
	return nil
}

// runVersion reports a pinned but missing version instead of failing, so it
// can be used to inspect a fresh checkout.
func runVersion(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	file, res, err := env.active(cwd)
	if err != nil {
		return err
	}
	report := newActiveReport(file, res)
	if outputJSON {
		return writeJSON(cmd, report)
	}
	if !res.Matched {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (not installed; %s)\n", res.Requested, report.Source)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.Toolchain.Version, report.Source)
	return nil
}

func newActiveReport(file pin.File, res resolve.Result) activeReport {
	report := activeReport{
		Specifier: file.Specifier.String(),
		Pin:       file.Path,
		Source:    "default version",
		Installed: res.Matched,
	}
	if file.Path != "" {
		report.Source = "set by " + file.Path
	}
	if res.Matched {
		v := res.Toolchain.Version
		report.Version = &v
		report.BinDir = res.Toolchain.BinDir
	}
	return report
}
