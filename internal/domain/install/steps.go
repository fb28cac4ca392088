package install

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Minimum runtime versions the installer accepts before reinstalling.
const (
	DefaultMinEngineVersion  = "24.0.0"
	DefaultMinComposeVersion = "2.20.0"
)

// Engine is the container-runtime surface the installer steps drive.
type Engine interface {
	EngineVersion(ctx context.Context) (string, error)
	ComposeVersion(ctx context.Context) (string, error)
	Pull(ctx context.Context) error
	Up(ctx context.Context) error
	ImageExists(ctx context.Context, ref string) (bool, error)
	AllRunning(ctx context.Context) (bool, error)
}

// ConfigMaterializer renders operator config files from templates.
// Pending lists the files a Materialize call would write; existing
// files are never listed and never overwritten.
type ConfigMaterializer interface {
	Pending(ctx context.Context) ([]string, error)
	Materialize(ctx context.Context) ([]string, error)
}

// BundleFile is one static deployment artifact placed in the deploy root.
type BundleFile struct {
	Name    string
	Content []byte
	Mode    os.FileMode
}

// SystemUpdateStep refreshes and upgrades OS packages via apt-get.
type SystemUpdateStep struct {
	runner ports.CommandRunner
}

// NewSystemUpdateStep creates the system package update step.
func NewSystemUpdateStep(runner ports.CommandRunner) *SystemUpdateStep {
	return &SystemUpdateStep{runner: runner}
}

func (s *SystemUpdateStep) Ordinal() int        { return 1 }
func (s *SystemUpdateStep) ID() string          { return "system-update" }
func (s *SystemUpdateStep) Description() string { return "Update OS packages" }

// Check simulates an upgrade; a system with nothing to upgrade is satisfied.
func (s *SystemUpdateStep) Check(ctx context.Context) (Status, error) {
	result, err := s.runner.Run(ctx, "apt-get", "-s", "upgrade")
	if err != nil || !result.Success() {
		return StatusNeedsApply, nil //nolint:nilerr // let Apply surface the real failure
	}
	if strings.Contains(result.Stdout, "0 upgraded, 0 newly installed") {
		return StatusSatisfied, nil
	}
	return StatusNeedsApply, nil
}

func (s *SystemUpdateStep) Apply(ctx context.Context) error {
	result, err := s.runner.Run(ctx, "apt-get", "update")
	if err != nil {
		return fmt.Errorf("apt-get update: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("apt-get update exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	result, err = s.runner.Run(ctx, "apt-get", "upgrade", "-y")
	if err != nil {
		return fmt.Errorf("apt-get upgrade: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("apt-get upgrade exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// InstallRuntimeStep installs the container engine and compose plugin
// when missing or below the minimum versions.
type InstallRuntimeStep struct {
	runner     ports.CommandRunner
	engine     Engine
	minEngine  string
	minCompose string
}

// NewInstallRuntimeStep creates the runtime installation step.
func NewInstallRuntimeStep(runner ports.CommandRunner, engine Engine) *InstallRuntimeStep {
	return &InstallRuntimeStep{
		runner:     runner,
		engine:     engine,
		minEngine:  DefaultMinEngineVersion,
		minCompose: DefaultMinComposeVersion,
	}
}

// WithMinVersions returns a copy with custom minimum versions.
func (s *InstallRuntimeStep) WithMinVersions(engine, compose string) *InstallRuntimeStep {
	c := *s
	c.minEngine = engine
	c.minCompose = compose
	return &c
}

func (s *InstallRuntimeStep) Ordinal() int        { return 2 }
func (s *InstallRuntimeStep) ID() string          { return "install-runtime" }
func (s *InstallRuntimeStep) Description() string { return "Install container runtime" }

func (s *InstallRuntimeStep) Check(ctx context.Context) (Status, error) {
	ev, err := s.engine.EngineVersion(ctx)
	if err != nil || !VersionAtLeast(ev, s.minEngine) {
		return StatusNeedsApply, nil //nolint:nilerr // engine absent or too old
	}
	cv, err := s.engine.ComposeVersion(ctx)
	if err != nil || !VersionAtLeast(cv, s.minCompose) {
		return StatusNeedsApply, nil //nolint:nilerr
	}
	return StatusSatisfied, nil
}

func (s *InstallRuntimeStep) Apply(ctx context.Context) error {
	result, err := s.runner.Run(ctx, "sh", "-c", "curl -fsSL https://get.docker.com | sh")
	if err != nil {
		return fmt.Errorf("runtime install script: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("runtime install script exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	result, err = s.runner.Run(ctx, "systemctl", "enable", "--now", "docker")
	if err != nil {
		return fmt.Errorf("enable docker service: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("enable docker service exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	if _, err := s.engine.EngineVersion(ctx); err != nil {
		return fmt.Errorf("engine not responding after install: %w", err)
	}
	return nil
}

// DeployFilesStep places the static deployment bundle into the deploy
// root. Content is compared by hash so drifted files are rewritten.
type DeployFilesStep struct {
	fs     ports.FileSystem
	root   string
	bundle []BundleFile
}

// NewDeployFilesStep creates the bundle deployment step.
func NewDeployFilesStep(fs ports.FileSystem, root string, bundle []BundleFile) *DeployFilesStep {
	return &DeployFilesStep{fs: fs, root: root, bundle: bundle}
}

func (s *DeployFilesStep) Ordinal() int        { return 3 }
func (s *DeployFilesStep) ID() string          { return "deploy-files" }
func (s *DeployFilesStep) Description() string { return "Deploy service bundle" }

func (s *DeployFilesStep) Check(_ context.Context) (Status, error) {
	for _, f := range s.bundle {
		path := filepath.Join(s.root, f.Name)
		if !s.fs.Exists(path) {
			return StatusNeedsApply, nil
		}
		hash, err := s.fs.FileHash(path)
		if err != nil {
			return StatusNeedsApply, nil //nolint:nilerr
		}
		if hash != contentHash(f.Content) {
			return StatusNeedsApply, nil
		}
	}
	return StatusSatisfied, nil
}

func (s *DeployFilesStep) Apply(_ context.Context) error {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create deploy root: %w", err)
	}
	for _, f := range s.bundle {
		path := filepath.Join(s.root, f.Name)
		if dir := filepath.Dir(path); dir != s.root {
			if err := s.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create directory for %s: %w", f.Name, err)
			}
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := s.fs.WriteFile(path, f.Content, mode); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}

// MaterializeConfigStep renders operator config files that do not
// exist yet. Files the operator already edited are left untouched.
type MaterializeConfigStep struct {
	materializer ConfigMaterializer
}

// NewMaterializeConfigStep creates the config materialization step.
func NewMaterializeConfigStep(m ConfigMaterializer) *MaterializeConfigStep {
	return &MaterializeConfigStep{materializer: m}
}

func (s *MaterializeConfigStep) Ordinal() int        { return 4 }
func (s *MaterializeConfigStep) ID() string          { return "materialize-config" }
func (s *MaterializeConfigStep) Description() string { return "Materialize service config" }

func (s *MaterializeConfigStep) Check(ctx context.Context) (Status, error) {
	pending, err := s.materializer.Pending(ctx)
	if err != nil {
		return StatusUnknown, err
	}
	if len(pending) == 0 {
		return StatusSatisfied, nil
	}
	return StatusNeedsApply, nil
}

func (s *MaterializeConfigStep) Apply(ctx context.Context) error {
	_, err := s.materializer.Materialize(ctx)
	return err
}

// PullImagesStep pulls the referenced container images.
type PullImagesStep struct {
	engine Engine
	images []string
}

// NewPullImagesStep creates the image pull step.
func NewPullImagesStep(engine Engine, images []string) *PullImagesStep {
	return &PullImagesStep{engine: engine, images: images}
}

func (s *PullImagesStep) Ordinal() int        { return 5 }
func (s *PullImagesStep) ID() string          { return "pull-images" }
func (s *PullImagesStep) Description() string { return "Pull container images" }

func (s *PullImagesStep) Check(ctx context.Context) (Status, error) {
	if len(s.images) == 0 {
		return StatusNeedsApply, nil
	}
	for _, ref := range s.images {
		exists, err := s.engine.ImageExists(ctx, ref)
		if err != nil {
			return StatusNeedsApply, nil //nolint:nilerr
		}
		if !exists {
			return StatusNeedsApply, nil
		}
	}
	return StatusSatisfied, nil
}

func (s *PullImagesStep) Apply(ctx context.Context) error {
	return s.engine.Pull(ctx)
}

// StartServicesStep brings the compose stack up.
type StartServicesStep struct {
	engine Engine
}

// NewStartServicesStep creates the service start step.
func NewStartServicesStep(engine Engine) *StartServicesStep {
	return &StartServicesStep{engine: engine}
}

func (s *StartServicesStep) Ordinal() int        { return 6 }
func (s *StartServicesStep) ID() string          { return "start-services" }
func (s *StartServicesStep) Description() string { return "Start services" }

func (s *StartServicesStep) Check(ctx context.Context) (Status, error) {
	running, err := s.engine.AllRunning(ctx)
	if err != nil || !running {
		return StatusNeedsApply, nil //nolint:nilerr
	}
	return StatusSatisfied, nil
}

func (s *StartServicesStep) Apply(ctx context.Context) error {
	return s.engine.Up(ctx)
}

// VersionAtLeast compares two dotted versions, tolerating a missing
// "v" prefix as emitted by docker.
func VersionAtLeast(have, want string) bool {
	h := normalizeVersion(have)
	w := normalizeVersion(want)
	if !semver.IsValid(h) || !semver.IsValid(w) {
		return false
	}
	return semver.Compare(h, w) >= 0
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
