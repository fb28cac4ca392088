package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Pull new images and restart every service onto them",
	Long: `Update pulls the images named in fctl.yaml and restarts every service
onto them, then waits for the facilitator to answer its health endpoint.

Unlike 'fctl reload' it restarts unconditionally: bumping an image tag
leaves the tracked config files untouched, so the reconciler would see
nothing to do. Edit the image tags in fctl.yaml, then run update.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := spinWhile(" Pulling images and restarting services...", func() (*app.DeployReport, error) {
		return newHarness(os.Stdout).Update(ctx)
	})
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	printRollout(report)
	return nil
}
