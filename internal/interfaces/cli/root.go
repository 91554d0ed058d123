package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"genv.tools/cli/internal/application/services"
	"genv.tools/cli/internal/core/enverr"
	"genv.tools/cli/internal/core/mutate"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	EnvService    *services.EnvService
	Logger        *zap.Logger
	MainContainer interface{} // Will be set to *di.Container, avoiding circular import
}

// NewRootCommand builds the base command. With no arguments it prints the
// full resolved snapshot; with key arguments it prints resolved values;
// with -w or -u it runs a transactional mutation batch.
func NewRootCommand(container *CLIContainer) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "genv [flags] [KEY ...]",
		Short: "genv - layered environment configuration for the Go toolchain",
		Long: `genv reads, validates, and safely mutates a layered environment
configuration store, the way 'go env' does: process environment variables
override the persisted store file, which overrides compiled-in defaults.

Writes are transactional batches: if any operation in a batch fails
validation, the store file is left byte-for-byte unchanged.

Exit codes: 1 usage or internal error, 2 unknown key, 3 invalid value,
4 parse error in the store file, 5 I/O error, 6 write lock contention.`,
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyContainerOverrides(cmd, container)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, container, args)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().String("file", "", "Store file path (default is $GENV, else the user config dir)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug diagnostics on stderr")

	rootCmd.Flags().BoolP("write", "w", false, "Apply KEY=VALUE arguments as a transactional set batch")
	rootCmd.Flags().BoolP("unset", "u", false, "Apply KEY arguments as a transactional unset batch")
	rootCmd.Flags().Bool("allow-unknown", false, "Store unknown keys verbatim instead of rejecting them")
	rootCmd.Flags().Bool("json", false, "Print the snapshot as JSON (shorthand for --format json)")
	rootCmd.Flags().String("format", "text", "Snapshot output format: text, json, or yaml")

	rootCmd.AddCommand(NewPathCommand(container))
	rootCmd.AddCommand(NewExplainCommand(container))
	rootCmd.AddCommand(NewDoctorCommand(container))
	rootCmd.AddCommand(NewBrowseCommand(container))
	rootCmd.AddCommand(NewWatchCommand(container))

	return rootCmd
}

// runRoot dispatches the bare command between query and mutation modes.
func runRoot(cmd *cobra.Command, container *CLIContainer, args []string) error {
	write, _ := cmd.Flags().GetBool("write")
	unset, _ := cmd.Flags().GetBool("unset")
	allowUnknown, _ := cmd.Flags().GetBool("allow-unknown")

	if write && unset {
		return fmt.Errorf("cannot combine -w and -u in one invocation")
	}

	ctx := cmd.Context()

	switch {
	case write:
		ops, err := ParseSetArgs(args)
		if err != nil {
			return err
		}
		return container.EnvService.Write(ctx, ops, mutate.Options{AllowUnknown: allowUnknown})

	case unset:
		ops, err := ParseUnsetArgs(args)
		if err != nil {
			return err
		}
		return container.EnvService.Write(ctx, ops, mutate.Options{AllowUnknown: allowUnknown})

	case len(args) > 0:
		for _, key := range args {
			res, err := container.EnvService.Get(ctx, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Value)
		}
		return nil

	default:
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		snapshot, err := container.EnvService.Snapshot(ctx)
		if err != nil {
			return err
		}
		return WriteSnapshot(cmd.OutOrStdout(), snapshot, format)
	}
}

// outputFormat merges the --json shorthand into --format.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		format = FormatJSON
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (must be text, json, or yaml)", format)
	}
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applyContainerOverrides applies the persistent --file and --verbose flags
// before any command runs.
func applyContainerOverrides(cmd *cobra.Command, container *CLIContainer) error {
	mainContainer, ok := container.MainContainer.(interface {
		ApplyStorePathOverride(string) error
		ApplyVerbose(bool) error
	})
	if !ok {
		// Silently continue if container doesn't support overrides
		return nil
	}

	if cmd.Flags().Changed("verbose") {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if err := mainContainer.ApplyVerbose(verbose); err != nil {
			return fmt.Errorf("failed to enable verbose diagnostics: %w", err)
		}
	}

	if path, _ := cmd.Flags().GetString("file"); path != "" && cmd.Flags().Changed("file") {
		if err := mainContainer.ApplyStorePathOverride(path); err != nil {
			return fmt.Errorf("failed to override store path: %w", err)
		}
	}

	return nil
}

// Execute runs the root command, mapping classified errors to their
// documented exit codes.
func Execute(ctx context.Context, container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "genv: %v\n", err)
		os.Exit(enverr.KindOf(err).ExitCode())
	}
}
