package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-print the snapshot whenever the store file changes",
		Long: `Watch the store file and print a fresh resolved snapshot after every
change, separated by a blank line. Useful while another terminal runs
'genv -w'. Stops on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, container)
		},
	}
}

// runWatch prints an initial snapshot, then one per store change.
func runWatch(cmd *cobra.Command, container *CLIContainer) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	storePath := container.EnvService.StorePath()

	printSnapshot := func() error {
		snapshot, err := container.EnvService.Snapshot(ctx)
		if err != nil {
			return err
		}
		return WriteSnapshot(out, snapshot, FormatText)
	}

	if err := printSnapshot(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors and atomic saves
	// replace the inode, which drops a direct file watch.
	dir := filepath.Dir(storePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(storePath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			container.Logger.Debug("store changed", zap.String("op", event.Op.String()))
			fmt.Fprintln(out)
			if err := printSnapshot(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			container.Logger.Warn("watch error", zap.Error(err))
		}
	}
}
