package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show services, health, and pending work",
	Long: `Status inspects the deployment without changing it: container states,
an immediate health probe, whether an interrupted install is waiting to
resume, and which config files changed since the last reload.

It takes no run lock, so it works while an install or deploy is in
flight. Areas that cannot be inspected report their error instead of
failing the whole command.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	report, err := newHarness(os.Stdout).Status(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	printStatus(os.Stdout, report)
	return nil
}

func printStatus(w io.Writer, report *app.StatusReport) {
	fmt.Fprintf(w, "Deployment at %s\n\n", report.Root)

	if report.ServicesErr != nil {
		fmt.Fprintf(w, "Services: %v\n", report.ServicesErr)
	} else if len(report.Services) == 0 {
		fmt.Fprintln(w, "Services: none running; run 'fctl deploy'")
	} else {
		tui.RenderServices(w, report.Services)
	}
	fmt.Fprintln(w)

	if report.HealthErr != nil {
		fmt.Fprintf(w, "Health:   %s unreachable: %v\n", report.HealthURL, report.HealthErr)
	} else if report.Healthy {
		fmt.Fprintf(w, "Health:   ok (%s)\n", report.HealthURL)
	}

	if report.StateErr != nil {
		fmt.Fprintf(w, "Install:  %v\n", report.StateErr)
	} else if report.ResumeOrdinal > 0 {
		fmt.Fprintf(w, "Install:  interrupted after step %d; 'fctl install' resumes it\n", report.ResumeOrdinal)
	}

	if !report.SnapshotTakenAt.IsZero() {
		fmt.Fprintf(w, "Snapshot: taken %s\n", tui.FormatAge(report.SnapshotTakenAt))
	}
	if report.PendingErr != nil {
		fmt.Fprintf(w, "Pending:  %v\n", report.PendingErr)
	} else if len(report.PendingReload) > 0 {
		fmt.Fprintf(w, "Pending:  %s changed; 'fctl reload' applies them\n", strings.Join(report.PendingReload, ", "))
	}
}
