package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/fleet"
	"github.com/felixgeelhaar/fctl/internal/tui"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Operate facilitator deployments on remote hosts",
	Long: `Fleet pushes the rendered deployment files to every host in the
manifest's fleet section over SSH and restarts what depends on them,
or asks each host for its service states. Hosts are handled
concurrently with a bounded fan-out.`,
}

var fleetDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Push config files to every fleet host and restart dependents",
	RunE:  runFleetDeploy,
}

var fleetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service states on every fleet host",
	RunE:  runFleetStatus,
}

func init() {
	fleetCmd.AddCommand(fleetDeployCmd)
	fleetCmd.AddCommand(fleetStatusCmd)

	rootCmd.AddCommand(fleetCmd)
}

func runFleetDeploy(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reports, err := newHarness(os.Stdout).FleetDeploy(ctx)
	if err != nil {
		return fmt.Errorf("fleet deploy failed: %w", err)
	}
	return printHostReports(os.Stdout, reports)
}

func runFleetStatus(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reports, err := newHarness(os.Stdout).FleetStatus(ctx)
	if err != nil {
		return fmt.Errorf("fleet status failed: %w", err)
	}
	return printHostReports(os.Stdout, reports)
}

// printHostReports prints one block per host and returns an error when
// any host failed, so partial fleet failures exit non-zero.
func printHostReports(w io.Writer, reports []fleet.HostReport) error {
	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
			fmt.Fprintf(w, "%s (%s): failed after %s: %v\n", r.Host, r.Address, tui.FormatDuration(r.Duration), r.Err)
			continue
		}
		fmt.Fprintf(w, "%s (%s): ok in %s\n", r.Host, r.Address, tui.FormatDuration(r.Duration))
		if out := strings.TrimSpace(r.Output); out != "" {
			for _, line := range strings.Split(out, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d host(s) failed", failed, len(reports))
	}
	return nil
}
