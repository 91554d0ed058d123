package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"genv.tools/cli/internal/core/resolve"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate the store file and every resolved value",
		Long: `Validate the genv configuration end to end.

This command will:
- Check that the store file parses
- Resolve every registered key across all layers
- Run each key's validator against its effective value
- Report persisted keys the schema does not recognize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, container)
		},
	}
}

// runDoctor handles the validation process
func runDoctor(cmd *cobra.Command, container *CLIContainer) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "🔍 genv configuration check")
	fmt.Fprintln(out, "")

	fmt.Fprintf(out, "Store file: %s\n", container.EnvService.StorePath())

	snapshot, err := container.EnvService.Inspect(ctx)
	if err != nil {
		fmt.Fprintln(out, "❌ Store unreadable")
		return err
	}
	fmt.Fprintln(out, "✅ Store parsed")
	fmt.Fprintln(out, "")

	failures := 0
	overrides := 0
	persisted := 0
	for _, res := range snapshot {
		if err := res.Key.Validate(res.Value); err != nil {
			fmt.Fprintf(out, "❌ %s: %v\n", res.Key.Name(), err)
			failures++
			continue
		}
		switch res.Origin {
		case resolve.LayerOverride:
			overrides++
		case resolve.LayerPersisted:
			persisted++
		}
	}

	fmt.Fprintf(out, "✅ %d keys resolved (%d from environment, %d from store, %d defaults)\n",
		len(snapshot), overrides, persisted, len(snapshot)-overrides-persisted)

	if failures > 0 {
		fmt.Fprintln(out, "")
		return fmt.Errorf("%d key(s) failed validation", failures)
	}

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "✅ Configuration is healthy")
	return nil
}
