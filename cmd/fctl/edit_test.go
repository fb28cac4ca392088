package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditCmd_FlagDefaults(t *testing.T) {
	t.Parallel()

	reload := editCmd.Flags().Lookup("reload")
	require.NotNil(t, reload)
	assert.Equal(t, "false", reload.DefValue)
}

func TestEditCmd_RequiresOneArg(t *testing.T) {
	t.Parallel()

	assert.Error(t, editCmd.Args(editCmd, nil))
	assert.NoError(t, editCmd.Args(editCmd, []string{"config"}))
	assert.Error(t, editCmd.Args(editCmd, []string{"config", "env"}))
}

func TestEditCmd_MentionsTargets(t *testing.T) {
	t.Parallel()

	assert.Contains(t, editCmd.Long, "config")
	assert.Contains(t, editCmd.Long, "caddy")
	assert.Contains(t, editCmd.Long, "manifest")
}

func TestCompleteEditTargets(t *testing.T) {
	t.Parallel()

	completions, directive := completeEditTargets(nil, nil, "")

	assert.ElementsMatch(t, []string{"caddy", "compose", "config", "env", "manifest"}, completions)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestCompleteEditTargets_NoSecondArg(t *testing.T) {
	t.Parallel()

	completions, _ := completeEditTargets(nil, []string{"config"}, "")

	assert.Nil(t, completions)
}
