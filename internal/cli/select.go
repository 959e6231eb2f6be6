package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pycors/internal/install"
	"pycors/internal/pin"
	"pycors/internal/resolve"
	"pycors/internal/toolchain"
	"pycors/internal/version"
)

var (
	selectExact   bool
	selectInstall bool
)

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <version>",
		Short: "Pin a Python version for the current directory",
		Long: `Write the specifier to .python-version in the current directory.
With --exact the pin records the concrete installed version the specifier
resolves to. With --install a missing version is installed first.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: runSelect,
	}
	cmd.Flags().BoolVar(&selectExact, "exact", false, "Pin the resolved version instead of the specifier")
	cmd.Flags().BoolVar(&selectInstall, "install", false, "Install a matching version if none is installed")
	return cmd
}

type selectReport struct {
	Pin       string               `json:"pin"`
	Specifier string               `json:"specifier"`
	Installed bool                 `json:"installed"`
	Toolchain *toolchain.Toolchain `json:"toolchain,omitempty"`
}

func runSelect(cmd *cobra.Command, args []string) error {
	spec, err := version.ParseSpecifier(args[0])
	if err != nil {
		return err
	}
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}

	installed, err := toolchain.Scan(env.layout.InstalledDir)
	if err != nil {
		return err
	}
	res := resolve.Resolve(spec, installed)
	if !res.Matched && selectInstall {
		tc, err := installSpecifier(cmd, env, spec, install.Options{})
		if err != nil {
			return err
		}
		res = resolve.Result{Matched: true, Toolchain: tc, Specifier: spec}
	}
	if !res.Matched && selectExact {
		return res.Err()
	}

	pinned := spec
	if selectExact {
		pinned = version.Exact{Version: res.Toolchain.Version}
	}
	path, err := pin.Write(cwd, pinned)
	if err != nil {
		return err
	}

	if outputJSON {
		report := selectReport{Pin: path, Specifier: pinned.String(), Installed: res.Matched}
		if res.Matched {
			report.Toolchain = &res.Toolchain
		}
		return writeJSON(cmd, report)
	}
	if !res.Matched {
		env.logger.Warnf("%v", res.Err())
		fmt.Fprintf(cmd.OutOrStdout(), "pinned %s in %s (not installed; run `pycors install %s`)\n", pinned, path, res.Requested)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pinned %s in %s (python %s)\n", pinned, path, res.Toolchain.Version)
	return nil
}
