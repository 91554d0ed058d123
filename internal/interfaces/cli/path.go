package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPathCommand creates the path command
func NewPathCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the store file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.EnvService.StorePath())
			return nil
		},
	}
}
