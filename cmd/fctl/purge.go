package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove the stack, its volumes, and all harness state",
	Long: `Purge takes the stack down with its volumes and deletes the state
directory: markers, snapshots, and backups all go. The deploy root's
config files stay on disk.

This destroys the facilitator's data. There is no undo.`,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(_ *cobra.Command, _ []string) error {
	confirmed := confirmAction("Destroy the stack, its volumes, and all harness state?", []string{
		"containers stopped and removed",
		"volumes deleted, including facilitator data",
		"state directory deleted: markers, snapshots, backups",
	})
	if !confirmed {
		fmt.Println("Purge cancelled.")
		return nil
	}

	if err := newHarness(os.Stdout).Purge(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	fmt.Println("Purged. The deploy root's config files remain.")
	return nil
}
