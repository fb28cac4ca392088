package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [stamp]",
	Short: "Put a backup set's files back into the deploy root",
	Long: `Restore copies a backup set's config files back over the live ones.
Every copy is verified against the hash recorded at backup time before
anything is written, so a damaged set never half-overwrites a live
deployment.

The set is addressed by its stamp or ID; 'fctl backups' lists both.
Without an argument the most recent set is restored. With --restart
the services depending on the restored files are restarted afterwards.

Examples:
  fctl restore                          # Most recent set
  fctl restore 20250115T101500Z
  fctl restore 20250115T101500Z --restart`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeBackupStamps,
	RunE:              runRestore,
}

var restoreRestart bool

func init() {
	restoreCmd.Flags().BoolVar(&restoreRestart, "restart", false, "Restart services depending on the restored files")

	rootCmd.AddCommand(restoreCmd)
}

func runRestore(_ *cobra.Command, args []string) error {
	h := newHarness(os.Stdout)

	key, err := resolveRestoreKey(h, args)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	if !confirmAction(fmt.Sprintf("Overwrite the live config files with backup %s?", key), nil) {
		fmt.Println("Restore cancelled.")
		return nil
	}

	report, err := h.Restore(context.Background(), key, restoreRestart)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Printf("Restored %s from %s\n", strings.Join(report.Restored, ", "), report.Set.Stamp)
	if restoreRestart {
		fmt.Printf("Restarted: %s\n", strings.Join(report.RestartSet, ", "))
	} else if len(report.RestartSet) > 0 {
		fmt.Printf("Needs restart: %s ('fctl reload' or --restart next time)\n", strings.Join(report.RestartSet, ", "))
	}
	return nil
}

// resolveRestoreKey returns the set to restore: the named one, or the
// most recent when no argument was given.
func resolveRestoreKey(h *app.Harness, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	sets, err := h.Backups(context.Background())
	if err != nil {
		return "", err
	}
	if len(sets) == 0 {
		return "", errors.New("no backup sets exist yet")
	}
	return sets[0].Stamp, nil
}

func completeBackupStamps(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sets, err := newHarness(os.Stderr).Backups(context.Background())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	stamps := make([]string, 0, len(sets))
	for _, set := range sets {
		stamps = append(stamps, set.Stamp)
	}
	return stamps, cobra.ShellCompDirectiveNoFileComp
}
