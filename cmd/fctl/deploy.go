package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/tui"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Pull images and bring the stack up",
	Long: `Deploy pulls the configured images, brings the stack up, and waits
for the facilitator to answer its health endpoint.

It assumes a provisioned deploy root; fresh hosts go through
'fctl install' first. A successful deploy rewrites the config snapshot
baseline, so a later reload only reacts to operator edits.`,
	RunE: runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := spinWhile(" Pulling images and starting services...", func() (*app.DeployReport, error) {
		return newHarness(os.Stdout).Deploy(ctx)
	})
	if err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}

	printRollout(report)
	return nil
}

// spinWhile runs fn behind a terminal spinner. Off a TTY the spinner
// library suppresses itself, so plain output stays clean.
func spinWhile(suffix string, fn func() (*app.DeployReport, error)) (*app.DeployReport, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Start()
	defer s.Stop()
	return fn()
}

func printRollout(report *app.DeployReport) {
	fmt.Printf("Services: %s\n", strings.Join(report.Services, ", "))
	if report.Healthy {
		fmt.Println("Facilitator is answering its health endpoint.")
	} else {
		fmt.Printf("Warning: facilitator not healthy yet: %v\n", report.HealthErr)
	}
	fmt.Printf("Done in %s.\n", tui.FormatDuration(report.Duration))
}
