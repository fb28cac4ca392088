package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/config"
)

var editCmd = &cobra.Command{
	Use:   "edit <target>",
	Short: "Open a config file in $EDITOR",
	Long: `Edit opens one of the deployed config files in $EDITOR (vi when
unset). With --reload the reconciler runs after the editor exits, so
the edit takes effect in one move.

Targets: ` + strings.Join(config.EditTargets(), ", ") + `

Examples:
  fctl edit config              # Facilitator config.toml
  fctl edit caddy --reload      # Edit Caddyfile, restart proxy`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEditTargets,
	RunE:              runEdit,
}

var editReload bool

func init() {
	editCmd.Flags().BoolVar(&editReload, "reload", false, "Run the reconciler after the editor exits")

	rootCmd.AddCommand(editCmd)
}

func runEdit(_ *cobra.Command, args []string) error {
	report, err := newHarness(os.Stdout).Edit(context.Background(), args[0], app.EditOptions{
		Reload: editReload,
	})
	if report != nil {
		fmt.Printf("Edited %s\n", report.Path)
		if report.ReloadReport != nil {
			printReload(report.ReloadReport)
		}
	}
	if err != nil {
		return fmt.Errorf("edit failed: %w", err)
	}
	return nil
}

func completeEditTargets(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.EditTargets(), cobra.ShellCompDirectiveNoFileComp
}
