package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackupCmd_IsSubcommandOfRoot(t *testing.T) {
	t.Parallel()

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["backup"], "backup should be a subcommand of root")
	assert.True(t, names["backups"], "backups should be a subcommand of root")
}

func TestRestoreCmd_FlagDefaults(t *testing.T) {
	t.Parallel()

	restart := restoreCmd.Flags().Lookup("restart")
	assert.NotNil(t, restart)
	assert.Equal(t, "false", restart.DefValue)
}

func TestRestoreCmd_TakesAtMostOneArg(t *testing.T) {
	t.Parallel()

	assert.NoError(t, restoreCmd.Args(restoreCmd, nil))
	assert.NoError(t, restoreCmd.Args(restoreCmd, []string{"20250115T101500Z"}))
	assert.Error(t, restoreCmd.Args(restoreCmd, []string{"a", "b"}))
}
