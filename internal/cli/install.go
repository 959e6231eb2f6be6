package cli

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"pycors/internal/fetch"
	"pycors/internal/install"
	"pycors/internal/logx"
	"pycors/internal/toolchain"
	"pycors/internal/tui"
	"pycors/internal/version"
)

var installForce bool

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Download, build and register a Python version",
		Long: `Install the newest published release matching the given specifier
("3.7.2", "3.7", "~3.7", "latest"). An intact existing install is reused
unless --force is given.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: runInstall,
	}
	cmd.Flags().BoolVar(&installForce, "force", false, "Rebuild even if the version is already installed")
	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	spec, err := version.ParseSpecifier(args[0])
	if err != nil {
		return err
	}
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	tc, err := installSpecifier(cmd, env, spec, install.Options{Force: installForce})
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, tc)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "python %s installed in %s\n", tc.Version, tc.Dir)
	return nil
}

// installSpecifier resolves spec against published releases and runs the
// install pipeline, rendering progress the way the output mode asks for.
func installSpecifier(cmd *cobra.Command, env *environment, spec version.Specifier, opts install.Options) (toolchain.Toolchain, error) {
	ctx := commandContext(cmd)
	mode := tui.DetectMode(cmd.ErrOrStderr(), verbose, outputJSON)
	if mode == tui.ModeTUI {
		// Log lines would tear the live table.
		env.logger.SetLevel(log.ErrorLevel)
	}

	var (
		onEvent    func(install.Event)
		onProgress func(fetch.Progress)
	)
	inst := env.installer(
		func(p fetch.Progress) {
			if onProgress != nil {
				onProgress(p)
			}
		},
		func(ev install.Event) {
			if onEvent != nil {
				onEvent(ev)
			}
		},
	)

	v, err := resolveInstallable(ctx, cmd, inst, spec, mode)
	if err != nil {
		return toolchain.Toolchain{}, err
	}
	env.logger.Debugf("%s resolves to python %s", spec, v)

	switch mode {
	case tui.ModeTUI:
		inst.Logger = logx.Nop()
		var tc toolchain.Toolchain
		err := tui.RunWithWork(ctx, cmd.ErrOrStderr(), tui.NewInstallModel(v), func(ctx context.Context, send func(tea.Msg)) error {
			reporter := tui.NewInstallReporter(send)
			onEvent = reporter.Event
			onProgress = reporter.Download
			var err error
			tc, err = inst.Install(ctx, v, opts)
			return err
		})
		return tc, err
	case tui.ModePlain:
		onEvent = tui.NewPlainReporter(cmd.ErrOrStderr()).Event
	}
	return inst.Install(ctx, v, opts)
}

func resolveInstallable(ctx context.Context, cmd *cobra.Command, inst *install.Installer, spec version.Specifier, mode tui.OutputMode) (version.Version, error) {
	if _, exact := spec.(version.Exact); exact || mode != tui.ModeTUI {
		return inst.ResolveInstallable(ctx, spec)
	}
	defer tui.Spin(cmd.ErrOrStderr(), fmt.Sprintf("Looking up releases matching %s", spec))()
	return inst.ResolveInstallable(ctx, spec)
}

func writeJSON(cmd *cobra.Command, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
