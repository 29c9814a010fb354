package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop the cached command results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deleteOutputs, _ := cmd.Flags().GetBool("delete")
			return c.app.Clean(cmd.Context(), app.CleanOptions{
				ConfigPath: configPath(cmd),
				Delete:     deleteOutputs,
			})
		},
	}

	cmd.Flags().BoolP("delete", "d", false, "Also delete every recorded output object")

	return cmd
}
