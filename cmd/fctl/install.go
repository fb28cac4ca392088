package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
	"github.com/felixgeelhaar/fctl/internal/tui"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision the host and start the facilitator stack",
	Long: `Install provisions the host end to end: OS packages, container
runtime, deployment files, rendered configs, images, services.

Every completed step leaves a durable marker under the state directory.
An interrupted or failed run resumes from the first unfinished step on
the next invocation; --force re-executes everything.

Examples:
  fctl install                  # Provision, resuming any prior run
  fctl install --force          # Re-execute every step
  fctl install --plain          # Line output instead of live progress`,
	RunE: runInstall,
}

var (
	installForce bool
	installPlain bool
)

func init() {
	installCmd.Flags().BoolVar(&installForce, "force", false, "Re-execute all steps, ignoring markers")
	installCmd.Flags().BoolVar(&installPlain, "plain", false, "Plain line output instead of the progress display")

	rootCmd.AddCommand(installCmd)
}

func runInstall(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	h := newHarness(os.Stdout)

	var report *install.RunReport
	var err error
	if installPlain || !isatty.IsTerminal(os.Stdout.Fd()) {
		report, err = h.Install(ctx, app.InstallOptions{Force: installForce})
		if report != nil {
			tui.RenderInstallReport(os.Stdout, report)
			printInstallSummary(report)
		}
	} else {
		report, err = tui.RunInstallProgress(ctx, func(ctx context.Context, obs install.Observer) (*install.RunReport, error) {
			return h.Install(ctx, app.InstallOptions{Force: installForce, Observer: obs})
		})
	}
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	return nil
}

// printInstallSummary prints the plain-mode closing lines. The progress
// display renders its own summary, so this only runs with --plain.
func printInstallSummary(report *install.RunReport) {
	fmt.Printf("\n%d step(s) applied, %d total.\n", report.AppliedCount(), len(report.Results))
	if !report.Probed {
		return
	}
	if report.Healthy {
		fmt.Println("Facilitator is answering its health endpoint.")
	} else {
		fmt.Printf("Warning: facilitator not healthy yet: %v\n", report.HealthErr)
	}
}
