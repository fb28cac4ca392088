package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/tui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the host and deployment",
	Long: `Doctor runs the full diagnostic list: privileges, disk and memory
floors, engine and compose versions, deployed file presence, config
parse checks, marker store integrity, and the health endpoint.

Each check reports pass, warn, or fail with a suggestion where one
exists. Doctor never mutates anything.

Examples:
  fctl doctor                   # Check this host
  fctl doctor --root /srv/f2    # Check another deploy root`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	report, err := newHarness(os.Stdout).Doctor(context.Background())
	if err != nil {
		return fmt.Errorf("doctor failed: %w", err)
	}

	tui.RenderDoctor(os.Stdout, &report)

	pass, warn, fail := report.Counts()
	fmt.Printf("\n%d passed, %d warned, %d failed.\n", pass, warn, fail)
	if report.Failed() {
		return fmt.Errorf("%d check(s) failed", fail)
	}
	return nil
}
