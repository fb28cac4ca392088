package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
)

var logsCmd = &cobra.Command{
	Use:   "logs [service...]",
	Short: "Show container logs",
	Long: `Logs prints container logs for the whole stack or for the named
services. Naming several services streams them concurrently with a
per-line service prefix.

Examples:
  fctl logs                         # Whole stack, last 100 lines
  fctl logs facilitator             # One service
  fctl logs facilitator proxy -f    # Two services, follow
  fctl logs --tail 500 proxy`,
	ValidArgsFunction: completeServices,
	RunE:              runLogs,
}

var (
	logsFollow bool
	logsTail   int
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep streaming new log lines")
	logsCmd.Flags().IntVar(&logsTail, "tail", app.DefaultLogTail, "Number of trailing lines per service")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newHarness(os.Stdout).Logs(ctx, app.LogsOptions{
		Services: args,
		Follow:   logsFollow,
		Tail:     logsTail,
	})
	// Interrupting a follow is how the stream ends, not a failure.
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logs failed: %w", err)
	}
	return nil
}

func completeServices(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		reconcile.ServiceFacilitator + "\tx402 facilitator",
		reconcile.ServiceProxy + "\tCaddy reverse proxy",
	}, cobra.ShellCompDirectiveNoFileComp
}
