package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pycors/internal/platform"
	"pycors/internal/toolchain"
	"pycors/internal/tui"
	"pycors/internal/version"
)

var (
	listDiscover  bool
	listAvailable bool
)

var (
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed Python versions",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runList,
	}
	cmd.Flags().BoolVar(&listDiscover, "discover", false, "Also report interpreters found on PATH")
	cmd.Flags().BoolVar(&listAvailable, "available", false, "List published releases instead of installed ones")
	return cmd
}

type listEntry struct {
	toolchain.Toolchain
	Active bool `json:"active"`
}

type listReport struct {
	Active     activeReport `json:"active"`
	Toolchains []listEntry  `json:"toolchains"`
}

func runList(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if listAvailable {
		return runListAvailable(cmd, env)
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}

	file, res, err := env.active(cwd)
	if err != nil {
		return err
	}
	found, err := toolchain.Scan(env.layout.InstalledDir)
	if err != nil {
		return err
	}
	if listDiscover {
		exclude := []string{env.layout.Root, env.layout.ShimsDir}
		found = append(found, toolchain.Discover(commandContext(cmd), os.Getenv("PATH"), exclude)...)
	}

	report := listReport{Active: newActiveReport(file, res), Toolchains: make([]listEntry, 0, len(found))}
	for _, tc := range found {
		active := res.Matched && tc.Origin == toolchain.OriginManaged && tc.Version.Equal(res.Toolchain.Version)
		report.Toolchains = append(report.Toolchains, listEntry{Toolchain: tc, Active: active})
	}

	if outputJSON {
		return writeJSON(cmd, report)
	}

	out := cmd.OutOrStdout()
	if len(report.Toolchains) == 0 {
		fmt.Fprintln(out, "no python versions installed")
	}
	for _, entry := range report.Toolchains {
		marker := " "
		name := fmt.Sprintf("%-10s", entry.Version)
		if entry.Active {
			marker = "*"
			name = activeStyle.Render(name)
		}
		line := fmt.Sprintf("%s %s %s", marker, name, entry.Dir)
		if entry.Origin != toolchain.OriginManaged {
			line += " " + faintStyle.Render("("+string(entry.Origin)+")")
		}
		fmt.Fprintln(out, line)
	}
	if !res.Matched {
		fmt.Fprintf(out, "* %s %s\n", fmt.Sprintf("%-10s", res.Requested), missingStyle.Render("(not installed; "+report.Active.Source+")"))
	}
	return nil
}

func runListAvailable(cmd *cobra.Command, env *environment) error {
	ctx := commandContext(cmd)
	stop := func() {}
	if tui.DetectMode(cmd.ErrOrStderr(), verbose, outputJSON) == tui.ModeTUI {
		stop = tui.Spin(cmd.ErrOrStderr(), "Fetching release index")
	}
	available, err := env.fetcher(nil).Available(ctx, platform.Current())
	stop()
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, available)
	}
	names := make([]string, 0, len(available))
	for _, v := range available {
		names = append(names, v.String())
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
	return nil
}

// activeReport describes which version governs the working directory.
type activeReport struct {
	Specifier string           `json:"specifier"`
	Pin       string           `json:"pin,omitempty"`
	Source    string           `json:"source"`
	Installed bool             `json:"installed"`
	Version   *version.Version `json:"version,omitempty"`
	BinDir    string           `json:"bin_dir,omitempty"`
}
