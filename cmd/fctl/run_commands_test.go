package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/fctl/internal/adapters/filesystem"
	"github.com/felixgeelhaar/fctl/internal/adapters/logging"
	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/testutil/mocks"
)

// withMockHarness points the harness seam at a temp deploy root and a
// mock command runner, so run functions execute without touching the
// host. Restored on cleanup.
func withMockHarness(t *testing.T) (*mocks.CommandRunner, string) {
	t.Helper()

	root := t.TempDir()
	manifest := fmt.Sprintf("state_dir: %s\nhealth:\n  url: http://127.0.0.1:1/health\n  interval: 1ms\n  attempts: 2\n  timeout: 50ms\nresources:\n  min_disk_mb: 1\n  min_memory_mb: 1\n",
		filepath.Join(root, "state"))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ManifestFileName), []byte(manifest), 0o644))

	runner := mocks.NewCommandRunner()
	orig := newHarness
	newHarness = func(_ io.Writer) *app.Harness {
		return app.NewHarness(io.Discard, logging.NewNopLogger()).
			WithAdapters(filesystem.NewRealFileSystem(), runner).
			WithRoot(root).
			WithEnv(func(string) string { return "" }).
			WithEUID(func() int { return 0 })
	}
	t.Cleanup(func() { newHarness = orig })

	return runner, root
}

func TestRunStatus_DegradedHostStillReports(t *testing.T) { //nolint:tparallel // swaps the harness seam
	_, root := withMockHarness(t)

	var err error
	output := captureStdout(t, func() {
		err = runStatus(&cobra.Command{}, nil)
	})

	// Nothing on the host answers, but status reports instead of failing.
	require.NoError(t, err)
	assert.Contains(t, output, "Deployment at "+root)
	assert.Contains(t, output, "Services:")
}

func TestRunDoctor_FreshRootFailsChecks(t *testing.T) { //nolint:tparallel // swaps the harness seam
	withMockHarness(t)

	var err error
	output := captureStdout(t, func() {
		err = runDoctor(&cobra.Command{}, nil)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "check(s) failed")
	assert.Contains(t, output, "failed")
}

func TestRunInstall_AbortsWhenHostCannotBeInspected(t *testing.T) { //nolint:tparallel // swaps the harness seam and plain flag
	withMockHarness(t)
	origPlain := installPlain
	installPlain = true
	defer func() { installPlain = origPlain }()

	var err error
	captureStdout(t, func() {
		err = runInstall(&cobra.Command{}, nil)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "install failed")
}

func TestRunEdit_UnknownTarget(t *testing.T) { //nolint:tparallel // swaps the harness seam
	withMockHarness(t)

	err := runEdit(&cobra.Command{}, []string{"nope"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown edit target")
}

func TestRunBackups_EmptyRoot(t *testing.T) { //nolint:tparallel // swaps the harness seam
	withMockHarness(t)

	var err error
	output := captureStdout(t, func() {
		err = runBackups(&cobra.Command{}, nil)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "No backups yet")
}

func TestRunBackupThenList(t *testing.T) { //nolint:tparallel // swaps the harness seam
	_, root := withMockHarness(t)
	for name, content := range map[string]string{
		"compose.yaml": "services:\n  facilitator: {}\n",
		"Caddyfile":    ":443 {\n}\n",
		"config.toml":  "[server]\nport = 8080\n",
		".env":         "X402_PORT=8080\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o600))
	}

	var err error
	output := captureStdout(t, func() {
		err = runBackup(&cobra.Command{}, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Created backup")
	assert.Contains(t, output, "config.toml")

	output = captureStdout(t, func() {
		err = runBackups(&cobra.Command{}, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "just now")
}

func TestRunRestore_UnknownStamp(t *testing.T) { //nolint:tparallel // swaps the harness seam and yes flag
	withMockHarness(t)
	origYes := yesFlag
	yesFlag = true
	defer func() { yesFlag = origYes }()

	err := runRestore(&cobra.Command{}, []string{"19990101T000000Z"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore failed")
}

func TestRunRestore_BareWithNoSets(t *testing.T) { //nolint:tparallel // swaps the harness seam and yes flag
	withMockHarness(t)
	origYes := yesFlag
	yesFlag = true
	defer func() { yesFlag = origYes }()

	err := runRestore(&cobra.Command{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backup sets exist yet")
}

func TestRunRestore_DeclinedLeavesFilesAlone(t *testing.T) { //nolint:tparallel // swaps the harness seam and yes flag
	withMockHarness(t)
	origYes := yesFlag
	yesFlag = false
	defer func() { yesFlag = origYes }()

	var err error
	output := captureStdout(t, func() {
		// No stdin in tests, so the prompt reads EOF and declines.
		err = runRestore(&cobra.Command{}, []string{"19990101T000000Z"})
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Restore cancelled")
}

func TestRunReset_DeclinedDoesNothing(t *testing.T) { //nolint:tparallel // swaps the harness seam and yes flag
	runner, _ := withMockHarness(t)
	origYes := yesFlag
	yesFlag = false
	defer func() { yesFlag = origYes }()

	var err error
	output := captureStdout(t, func() {
		err = runReset(&cobra.Command{}, nil)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Reset cancelled")
	assert.Empty(t, runner.Calls())
}

func TestRunReset_ConfirmedOnBareRoot(t *testing.T) { //nolint:tparallel // swaps the harness seam and yes flag
	runner, _ := withMockHarness(t)
	origYes := yesFlag
	yesFlag = true
	defer func() { yesFlag = origYes }()

	var err error
	output := captureStdout(t, func() {
		err = runReset(&cobra.Command{}, nil)
	})

	// No compose file means nothing to take down; markers clear cleanly.
	require.NoError(t, err)
	assert.Contains(t, output, "starts from step one")
	assert.Empty(t, runner.Calls())
}

func TestRunLogs_NoStack(t *testing.T) { //nolint:tparallel // swaps the harness seam
	withMockHarness(t)

	err := runLogs(&cobra.Command{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "logs failed")
}
