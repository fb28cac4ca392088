package mcp

import (
	"bytes"
	"testing"

	"github.com/felixgeelhaar/fctl/internal/adapters/logging"
	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareServer() *mcp.Server {
	harness := app.NewHarness(bytes.NewBuffer(nil), logging.NewNopLogger())
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "fctl-test",
		Version: "1.0.0",
	})
	RegisterAll(srv, harness, testVersionInfo())
	return srv
}

func toolByName(t *testing.T, srv *mcp.Server, name string) (string, string) {
	t.Helper()
	for _, tool := range srv.Tools() {
		if tool.Name == name {
			return tool.Name, tool.Description
		}
	}
	require.Failf(t, "tool missing", "tool %q should be registered", name)
	return "", ""
}

func TestRegisterAll(t *testing.T) {
	srv := newBareServer()

	toolNames := make(map[string]bool)
	for _, tool := range srv.Tools() {
		toolNames[tool.Name] = true
	}

	for _, name := range []string{
		"fctl_status",
		"fctl_doctor",
		"fctl_logs",
		"fctl_backups",
		"fctl_install",
		"fctl_deploy",
		"fctl_update",
		"fctl_reload",
		"fctl_backup",
		"fctl_restore",
	} {
		assert.True(t, toolNames[name], "%s should be registered", name)
	}
}

func TestStatusTool_Description(t *testing.T) {
	srv := newBareServer()

	name, desc := toolByName(t, srv, "fctl_status")
	assert.Equal(t, "fctl_status", name)
	assert.Contains(t, desc, "deployment status")
}

func TestDoctorTool_Description(t *testing.T) {
	srv := newBareServer()

	_, desc := toolByName(t, srv, "fctl_doctor")
	assert.Contains(t, desc, "diagnostics")
}

func TestLogsTool_Description(t *testing.T) {
	srv := newBareServer()

	_, desc := toolByName(t, srv, "fctl_logs")
	assert.Contains(t, desc, "container logs")
	assert.Contains(t, desc, "never follows")
}

func TestInstallTool_Description(t *testing.T) {
	srv := newBareServer()

	_, desc := toolByName(t, srv, "fctl_install")
	assert.Contains(t, desc, "Provision the host")
	assert.Contains(t, desc, "confirm=true")
}

func TestDeployTool_Description(t *testing.T) {
	srv := newBareServer()

	_, desc := toolByName(t, srv, "fctl_deploy")
	assert.Contains(t, desc, "bring the stack up")
	assert.Contains(t, desc, "confirm=true")
}

func TestReloadTool_Description(t *testing.T) {
	srv := newBareServer()

	_, desc := toolByName(t, srv, "fctl_reload")
	assert.Contains(t, desc, "config files changed")
	assert.Contains(t, desc, "confirm=true")
}

func TestRestoreTool_Description(t *testing.T) {
	srv := newBareServer()

	_, desc := toolByName(t, srv, "fctl_restore")
	assert.Contains(t, desc, "Restore a backup set")
	assert.Contains(t, desc, "confirm=true")
}
