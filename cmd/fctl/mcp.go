package main

import (
	"context"
	"os"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/spf13/cobra"

	mcptools "github.com/felixgeelhaar/fctl/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server so AI agents can inspect
and operate the deployment.

Available tools:
  - fctl_status    Services, health, pending work
  - fctl_doctor    Run the diagnostic checks
  - fctl_logs      Fetch container logs
  - fctl_install   Provision the host (requires confirm)
  - fctl_deploy    Bring the stack up (requires confirm)
  - fctl_update    Restart onto new images (requires confirm)
  - fctl_reload    Preview or apply config changes
  - fctl_backup    Create a backup set
  - fctl_backups   List backup sets
  - fctl_restore   Preview or apply a restore

Examples:
  fctl mcp                 # Start stdio MCP server
  fctl mcp --http :8080    # Start HTTP MCP server`,
	RunE: runMCP,
}

var mcpHTTP string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "Start HTTP server on address (e.g., :8080)")

	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	// MCP speaks JSON over stdout; logs must stay on stderr.
	harness := newHarness(os.Stderr)

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "fctl",
		Version: version,
	})

	mcptools.RegisterAll(srv, harness, mcptools.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
	})

	if mcpHTTP != "" {
		return mcp.ServeHTTP(ctx, srv, mcpHTTP)
	}
	return mcp.ServeStdio(ctx, srv)
}
