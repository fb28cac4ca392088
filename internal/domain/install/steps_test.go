package install

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/fctl/internal/ports"
	"github.com/felixgeelhaar/fctl/internal/testutil/mocks"
)

func TestSystemUpdateStep_CheckSatisfiedWhenNothingToUpgrade(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"-s", "upgrade"}, ports.CommandResult{
		Stdout: "0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n",
	})

	status, err := NewSystemUpdateStep(runner).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSatisfied, status)
}

func TestSystemUpdateStep_CheckNeedsApplyWhenPackagesPending(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"-s", "upgrade"}, ports.CommandResult{
		Stdout: "12 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n",
	})

	status, err := NewSystemUpdateStep(runner).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsApply, status)
}

func TestSystemUpdateStep_CheckToleratesMissingAptGet(t *testing.T) {
	runner := mocks.NewCommandRunner()

	status, err := NewSystemUpdateStep(runner).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsApply, status)
}

func TestSystemUpdateStep_Apply(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"update"}, ports.CommandResult{})
	runner.AddResult("apt-get", []string{"upgrade", "-y"}, ports.CommandResult{})

	require.NoError(t, NewSystemUpdateStep(runner).Apply(context.Background()))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"update"}, calls[0].Args)
	assert.Equal(t, []string{"upgrade", "-y"}, calls[1].Args)
}

func TestSystemUpdateStep_ApplyFailsOnNonZeroExit(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"update"}, ports.CommandResult{
		ExitCode: 100,
		Stderr:   "E: Could not get lock /var/lib/apt/lists/lock",
	})

	err := NewSystemUpdateStep(runner).Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not get lock")
}

func TestInstallRuntimeStep_Check(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
		want   Status
	}{
		{
			name:   "current versions are satisfied",
			engine: &fakeEngine{engineVersion: "27.3.1", composeVersion: "2.29.7"},
			want:   StatusSatisfied,
		},
		{
			name:   "missing engine needs apply",
			engine: &fakeEngine{engineErr: errors.New("docker: command not found")},
			want:   StatusNeedsApply,
		},
		{
			name:   "old engine needs apply",
			engine: &fakeEngine{engineVersion: "20.10.7", composeVersion: "2.29.7"},
			want:   StatusNeedsApply,
		},
		{
			name:   "missing compose plugin needs apply",
			engine: &fakeEngine{engineVersion: "27.3.1", composeErr: errors.New("no such command: compose")},
			want:   StatusNeedsApply,
		},
		{
			name:   "old compose plugin needs apply",
			engine: &fakeEngine{engineVersion: "27.3.1", composeVersion: "2.3.0"},
			want:   StatusNeedsApply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := NewInstallRuntimeStep(mocks.NewCommandRunner(), tt.engine)
			status, err := step.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestInstallRuntimeStep_Apply(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("sh", []string{"-c", "curl -fsSL https://get.docker.com | sh"}, ports.CommandResult{})
	runner.AddResult("systemctl", []string{"enable", "--now", "docker"}, ports.CommandResult{})
	engine := &fakeEngine{engineVersion: "27.3.1"}

	require.NoError(t, NewInstallRuntimeStep(runner, engine).Apply(context.Background()))
	assert.Len(t, runner.Calls(), 2)
}

func TestInstallRuntimeStep_ApplyFailsWhenEngineSilent(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("sh", []string{"-c", "curl -fsSL https://get.docker.com | sh"}, ports.CommandResult{})
	runner.AddResult("systemctl", []string{"enable", "--now", "docker"}, ports.CommandResult{})
	engine := &fakeEngine{engineErr: errors.New("cannot connect to the docker daemon")}

	err := NewInstallRuntimeStep(runner, engine).Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not responding after install")
}

func TestDeployFilesStep(t *testing.T) {
	bundle := []BundleFile{
		{Name: "compose.yaml", Content: []byte("services: {}\n")},
		{Name: "Caddyfile", Content: []byte(":443 {\n}\n")},
	}
	fs := mocks.NewFileSystem()
	step := NewDeployFilesStep(fs, "/srv/facilitator", bundle)
	ctx := context.Background()

	status, err := step.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsApply, status)

	require.NoError(t, step.Apply(ctx))
	assert.True(t, fs.Exists("/srv/facilitator/compose.yaml"))
	assert.True(t, fs.Exists("/srv/facilitator/Caddyfile"))

	// Re-check after apply: content matches, nothing to do.
	status, err = step.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSatisfied, status)

	// Drift one file; the step wants to run again.
	fs.AddFile("/srv/facilitator/Caddyfile", ":80 {\n}\n")
	status, err = step.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsApply, status)
}

type fakeMaterializer struct {
	pending    []string
	pendingErr error
	written    []string
	applyErr   error
	calls      int
}

func (m *fakeMaterializer) Pending(context.Context) ([]string, error) {
	return m.pending, m.pendingErr
}

func (m *fakeMaterializer) Materialize(context.Context) ([]string, error) {
	m.calls++
	return m.written, m.applyErr
}

func TestMaterializeConfigStep(t *testing.T) {
	m := &fakeMaterializer{pending: []string{"config.toml", ".env"}}
	step := NewMaterializeConfigStep(m)
	ctx := context.Background()

	status, err := step.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsApply, status)

	require.NoError(t, step.Apply(ctx))
	assert.Equal(t, 1, m.calls)

	m.pending = nil
	status, err = step.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSatisfied, status)
}

func TestMaterializeConfigStep_CheckError(t *testing.T) {
	m := &fakeMaterializer{pendingErr: errors.New("template parse error")}
	status, err := NewMaterializeConfigStep(m).Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusUnknown, status)
}

func TestPullImagesStep(t *testing.T) {
	images := []string{"ghcr.io/x402/facilitator:1.2.0", "caddy:2.8-alpine"}

	t.Run("all images present is satisfied", func(t *testing.T) {
		engine := &fakeEngine{images: map[string]bool{
			"ghcr.io/x402/facilitator:1.2.0": true,
			"caddy:2.8-alpine":               true,
		}}
		status, err := NewPullImagesStep(engine, images).Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusSatisfied, status)
	})

	t.Run("missing image needs apply", func(t *testing.T) {
		engine := &fakeEngine{images: map[string]bool{
			"ghcr.io/x402/facilitator:1.2.0": true,
		}}
		status, err := NewPullImagesStep(engine, images).Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusNeedsApply, status)
	})

	t.Run("apply pulls", func(t *testing.T) {
		engine := &fakeEngine{}
		require.NoError(t, NewPullImagesStep(engine, images).Apply(context.Background()))
		assert.Equal(t, 1, engine.pulls)
	})
}

func TestStartServicesStep(t *testing.T) {
	t.Run("running stack is satisfied", func(t *testing.T) {
		engine := &fakeEngine{running: true}
		status, err := NewStartServicesStep(engine).Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusSatisfied, status)
	})

	t.Run("stopped stack needs apply", func(t *testing.T) {
		engine := &fakeEngine{running: false}
		status, err := NewStartServicesStep(engine).Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusNeedsApply, status)
	})

	t.Run("apply brings stack up", func(t *testing.T) {
		engine := &fakeEngine{}
		require.NoError(t, NewStartServicesStep(engine).Apply(context.Background()))
		assert.Equal(t, 1, engine.ups)
	})
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		have string
		want string
		ok   bool
	}{
		{"27.3.1", "24.0.0", true},
		{"v27.3.1", "24.0.0", true},
		{"24.0.0", "24.0.0", true},
		{"23.0.6", "24.0.0", false},
		{"2.29.7", "2.20.0", true},
		{"2.3.4", "2.20.0", false},
		{"", "24.0.0", false},
		{"garbage", "24.0.0", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, VersionAtLeast(tt.have, tt.want), "have=%q want=%q", tt.have, tt.want)
	}
}

func TestDefaultStepOrdinals(t *testing.T) {
	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	engine := &fakeEngine{}

	seq, err := NewSequence(
		NewSystemUpdateStep(runner),
		NewInstallRuntimeStep(runner, engine),
		NewDeployFilesStep(fs, "/srv/facilitator", nil),
		NewMaterializeConfigStep(&fakeMaterializer{}),
		NewPullImagesStep(engine, nil),
		NewStartServicesStep(engine),
	)
	require.NoError(t, err)
	assert.Equal(t, 6, seq.Len())

	step, ok := seq.Step(4)
	require.True(t, ok)
	assert.Equal(t, "materialize-config", step.ID())
}
