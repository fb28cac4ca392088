package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/fctl/internal/domain/install"
	"github.com/felixgeelhaar/fctl/internal/ports"
)

func (f *fixture) writeMarkers(doc string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(f.state, 0o700))
	require.NoError(f.t, os.WriteFile(filepath.Join(f.state, "state.json"), []byte(doc), 0o600))
}

func TestStatusOnHealthyDeployment(t *testing.T) {
	f := newFixture(t)
	f.seedDeployedRoot()
	f.settle()
	f.serveHealth()
	f.runner.AddResult("docker", f.composeArgs("ps", "--all", "--format", "json"),
		ports.CommandResult{ExitCode: 0, Stdout: runningStackJSON})

	report, err := f.h.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, f.root, report.Root)
	require.NoError(t, report.ServicesErr)
	require.Len(t, report.Services, 2)
	assert.True(t, report.Services[0].Running())
	assert.True(t, report.Healthy)
	assert.Zero(t, report.ResumeOrdinal)
	assert.False(t, report.SnapshotTakenAt.IsZero())
	assert.Empty(t, report.PendingReload)
}

func TestStatusDegradesPerArea(t *testing.T) {
	f := newFixture(t)

	// Nothing is registered or on disk: docker unreachable, probe
	// refused, no markers, no snapshot. Status still answers.
	report, err := f.h.Status(context.Background())
	require.NoError(t, err)

	assert.Error(t, report.ServicesErr)
	assert.False(t, report.Healthy)
	assert.Error(t, report.HealthErr)
	assert.NoError(t, report.StateErr)
	assert.Zero(t, report.ResumeOrdinal)
	assert.True(t, report.SnapshotTakenAt.IsZero())
	assert.Nil(t, report.PendingReload)
}

func TestStatusReportsPendingReloadWithoutRestarting(t *testing.T) {
	f := newFixture(t)
	f.seedDeployedRoot()
	f.settle()
	f.editFile("config.toml", "[server]\nport = 9090\n")

	report, err := f.h.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"config.toml"}, report.PendingReload)
	assert.Equal(t, -1, commandIndex(f.runner.Calls(), "restart"))
}

func TestStatusReportsInstallResumePoint(t *testing.T) {
	f := newFixture(t)
	f.writeMarkers(`{
  "version": 1,
  "run_id": "5f2e7c52-9a3d-4e56-8d1a-0f27c3a41b11",
  "updated_at": "2026-08-25T10:00:00Z",
  "steps": [
    {"ordinal": 1, "id": "system-update", "completed_at": "2026-08-25T10:00:00Z"},
    {"ordinal": 2, "id": "install-runtime", "completed_at": "2026-08-25T10:01:00Z"}
  ]
}`)

	report, err := f.h.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.ResumeOrdinal)
	assert.NoError(t, report.StateErr)
}

func TestStatusSurfacesCorruptMarkers(t *testing.T) {
	f := newFixture(t)
	f.writeMarkers(`{"version": 99}`)

	report, err := f.h.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, install.IsStateCorrupt(report.StateErr))
}
