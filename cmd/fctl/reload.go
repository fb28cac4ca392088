package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/tui"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Apply config edits by restarting only affected services",
	Long: `Reload fingerprints the tracked config files, compares them against
the recorded snapshot, and restarts exactly the services that depend on
the files that changed. Nothing changed means nothing restarts.

Watch mode keeps running and reloads on every tracked-file change,
debounced so an editor's save burst triggers one reload, not five.

Examples:
  fctl reload                   # One reconcile pass
  fctl reload --watch           # Reload on every config edit
  fctl reload --watch --debounce 2s`,
	RunE: runReload,
}

var (
	reloadWatch    bool
	reloadDebounce string
)

func init() {
	reloadCmd.Flags().BoolVarP(&reloadWatch, "watch", "w", false, "Keep running and reload on tracked-file changes")
	reloadCmd.Flags().StringVar(&reloadDebounce, "debounce", app.DefaultWatchDebounce.String(), "Quiet period before a watched change fires a reload")

	rootCmd.AddCommand(reloadCmd)
}

func runReload(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	h := newHarness(os.Stdout)

	if reloadWatch {
		debounce, err := time.ParseDuration(reloadDebounce)
		if err != nil {
			return fmt.Errorf("invalid debounce duration: %w", err)
		}
		err = h.Watch(ctx, app.WatchOptions{
			Debounce: debounce,
			OnReload: func(report *reconcile.Report, err error) {
				if report != nil {
					printReload(report)
				}
				if err != nil {
					printError(err)
				}
			},
		})
		if errors.Is(err, context.Canceled) {
			fmt.Println("\nWatch stopped.")
			return nil
		}
		return err
	}

	report, err := h.Reload(ctx)
	if report != nil {
		printReload(report)
	}
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// printReload prints one reconcile outcome. Partial restart failures
// show up here as well as in the returned error: the reconciler keeps
// going past a failed service, so the report always tells the full
// story.
func printReload(report *reconcile.Report) {
	if report.NoChange() {
		fmt.Println("No tracked files changed.")
		return
	}
	fmt.Printf("Changed: %s\n", strings.Join(report.Changed, ", "))
	if len(report.Restarted) > 0 {
		fmt.Printf("Restarted: %s\n", strings.Join(report.Restarted, ", "))
	}
	for svc, err := range report.FailedRestarts {
		fmt.Printf("Failed to restart %s: %v\n", svc, err)
	}
	if report.SnapshotWritten {
		fmt.Printf("Snapshot updated in %s.\n", tui.FormatDuration(report.Duration))
	}
}
