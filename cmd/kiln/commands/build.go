package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every step of the project incrementally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.app.Build(cmd.Context(), buildOptions(cmd))
			return err
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("threads", "j", 0, "Number of steps to run in parallel (default: from config, else one per CPU)")
	cmd.Flags().Bool("no-index", false, "Do not write the content index at the end of the build")
	cmd.Flags().BoolP("force", "f", false, "Reset the content and result indexes before building")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	threads, _ := cmd.Flags().GetInt("threads")
	noIndex, _ := cmd.Flags().GetBool("no-index")
	force, _ := cmd.Flags().GetBool("force")
	return app.BuildOptions{
		ConfigPath: configPath(cmd),
		Threads:    threads,
		NoIndex:    noIndex,
		Force:      force,
	}
}
