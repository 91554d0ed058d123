package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"genv.tools/cli/internal/core/resolve"
)

var (
	explainKeyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	explainHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	originStyles       = map[resolve.Layer]lipgloss.Style{
		resolve.LayerOverride:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		resolve.LayerPersisted: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		resolve.LayerDefault:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

// NewExplainCommand creates the explain command, which reports where each
// effective value comes from.
func NewExplainCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [KEY ...]",
		Short: "Show resolved values with their origin layer",
		Long: `Show each key's effective value together with the layer it was
resolved from: override (process environment), persisted (store file), or
default (compiled-in schema). With no arguments every key is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var resolutions []resolve.Resolution
			if len(args) == 0 {
				snapshot, err := container.EnvService.Snapshot(ctx)
				if err != nil {
					return err
				}
				resolutions = snapshot
			} else {
				for _, key := range args {
					res, err := container.EnvService.Get(ctx, key)
					if err != nil {
						return err
					}
					resolutions = append(resolutions, res)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, explainHeaderStyle.Render(fmt.Sprintf("%-14s %-10s %-6s %s", "KEY", "ORIGIN", "TYPE", "VALUE")))
			for _, res := range resolutions {
				fmt.Fprintf(out, "%s %s %-6s %s\n",
					explainKeyStyle.Render(fmt.Sprintf("%-14s", res.Key.Name())),
					originStyles[res.Origin].Render(fmt.Sprintf("%-10s", res.Origin.String())),
					res.Key.Kind().String(),
					res.Value,
				)
			}
			return nil
		},
	}
}
