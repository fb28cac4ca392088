package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the stack and clear install markers",
	Long: `Reset stops and removes the containers and clears the install marker
store, so the next 'fctl install' starts from step one.

Volumes and config files stay: the facilitator's data and the
operator's edits survive a reset. 'fctl purge' removes those too.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	confirmed := confirmAction("Stop the stack and clear install markers?", []string{
		"containers stopped and removed",
		"install markers cleared",
		"volumes and config files kept",
	})
	if !confirmed {
		fmt.Println("Reset cancelled.")
		return nil
	}

	if err := newHarness(os.Stdout).Reset(context.Background()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("Stack stopped; next 'fctl install' starts from step one.")
	return nil
}
