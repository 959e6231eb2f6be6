package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Run a command with the active Python version first on PATH",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE:  runRun,
	}
	// Everything after the command name belongs to the command.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	_, res, err := env.active(cwd)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}

	dirs := res.Toolchain.ExecutableDirs()
	binary, ok := res.Toolchain.LookupTool(args[0])
	if !ok {
		binary, err = exec.LookPath(args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
	}
	env.logger.Debugf("run %s with python %s", binary, res.Toolchain.Version)

	child := exec.CommandContext(commandContext(cmd), binary, args[1:]...)
	child.Env = prependPath(os.Environ(), dirs)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()
	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", args[0], err)
	}
	return nil
}

// prependPath puts dirs ahead of the existing PATH entry in environ.
func prependPath(environ []string, dirs []string) []string {
	out := make([]string, 0, len(environ)+1)
	current := ""
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		if strings.EqualFold(key, "PATH") {
			current = value
			continue
		}
		out = append(out, kv)
	}
	entries := append([]string{}, dirs...)
	if current != "" {
		entries = append(entries, current)
	}
	return append(out, "PATH="+strings.Join(entries, string(os.PathListSeparator)))
}
