package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPCmd_FlagDefaults(t *testing.T) {
	t.Parallel()

	http := mcpCmd.Flags().Lookup("http")
	require.NotNil(t, http)
	assert.Empty(t, http.DefValue)
}

func TestMCPCmd_IsSubcommandOfRoot(t *testing.T) {
	t.Parallel()

	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == "mcp" {
			found = true
			break
		}
	}
	assert.True(t, found, "mcp should be a subcommand of root")
}

func TestMCPCmd_ListsTools(t *testing.T) {
	t.Parallel()

	for _, tool := range []string{
		"fctl_status", "fctl_doctor", "fctl_logs", "fctl_install",
		"fctl_deploy", "fctl_update", "fctl_reload", "fctl_backup",
		"fctl_backups", "fctl_restore",
	} {
		assert.Contains(t, mcpCmd.Long, tool)
	}
}
