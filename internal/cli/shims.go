package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pycors/internal/shim"
)

func newShimsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shims",
		Short: "Recreate the tool links in the shims directory",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runShims,
	}
}

func runShims(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	changed, err := shim.Refresh(env.layout)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, map[string]any{"dir": env.layout.ShimsDir, "updated": changed})
	}
	if len(changed) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "shims in %s are up to date\n", env.layout.ShimsDir)
		return nil
	}
	for _, name := range changed {
		fmt.Fprintf(cmd.OutOrStdout(), "linked %s\n", name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "add %s to PATH to use them\n", env.layout.ShimsDir)
	return nil
}
