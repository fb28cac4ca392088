package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/tui"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the config files into a new backup set",
	Long: `Backup copies the deployable config files into a timestamped set
under the state directory and prunes old sets beyond the configured
retention. Each file's hash is recorded so restore can verify the
copies before writing anything back.`,
	RunE: runBackup,
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backup sets",
	RunE:  runBackups,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(backupsCmd)
}

func runBackup(_ *cobra.Command, _ []string) error {
	report, err := newHarness(os.Stdout).Backup(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	names := make([]string, 0, len(report.Set.Files))
	for name := range report.Set.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Created backup %s (%s)\n", report.Set.Stamp, report.Set.ID)
	fmt.Printf("Files: %s\n", strings.Join(names, ", "))
	if len(report.Pruned) > 0 {
		fmt.Printf("Pruned: %s\n", strings.Join(report.Pruned, ", "))
	}
	return nil
}

func runBackups(_ *cobra.Command, _ []string) error {
	sets, err := newHarness(os.Stdout).Backups(context.Background())
	if err != nil {
		return fmt.Errorf("listing backups failed: %w", err)
	}
	if len(sets) == 0 {
		fmt.Println("No backups yet; 'fctl backup' creates one.")
		return nil
	}
	tui.RenderBackups(os.Stdout, sets)
	return nil
}
