// Package app wires the domain packages into the operations the fctl
// commands expose. Every operation loads the manifest fresh so edits to
// fctl.yaml take effect on the next invocation.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/fctl/internal/adapters/command"
	"github.com/felixgeelhaar/fctl/internal/adapters/filesystem"
	"github.com/felixgeelhaar/fctl/internal/domain/backup"
	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/health"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/ports"
	"github.com/felixgeelhaar/fctl/internal/runtime"
)

// RootEnvVar overrides the deploy root when no --root flag is given.
const RootEnvVar = "FCTL_ROOT"

// State directory file names.
const (
	markerFileName   = "state.json"
	snapshotFileName = "snapshot.json"
	lockFileName     = "fctl.lock"
	backupsDirName   = "backups"
)

// Harness is the application orchestrator behind every fctl command.
type Harness struct {
	fs     ports.FileSystem
	runner ports.CommandRunner
	logger ports.Logger
	loader *config.Loader
	out    io.Writer
	root   string
	getenv func(string) string
	euid   func() int
}

// NewHarness creates a harness over the real process, filesystem and
// environment.
func NewHarness(out io.Writer, logger ports.Logger) *Harness {
	return &Harness{
		fs:     filesystem.NewRealFileSystem(),
		runner: command.NewRealRunner(),
		logger: logger,
		loader: config.NewLoader(),
		out:    out,
		getenv: os.Getenv,
		euid:   os.Geteuid,
	}
}

// WithAdapters returns a copy using the given filesystem and runner.
func (h *Harness) WithAdapters(fs ports.FileSystem, runner ports.CommandRunner) *Harness {
	c := *h
	c.fs = fs
	c.runner = runner
	return &c
}

// WithRoot returns a copy pinned to the given deploy root.
func (h *Harness) WithRoot(root string) *Harness {
	c := *h
	c.root = root
	return &c
}

// WithEnv returns a copy reading environment variables via getenv.
func (h *Harness) WithEnv(getenv func(string) string) *Harness {
	c := *h
	c.getenv = getenv
	return &c
}

// WithOutput returns a copy writing command output to out. Embedders
// that need to capture output, such as the MCP log tool, use this
// instead of sharing the process stdout.
func (h *Harness) WithOutput(out io.Writer) *Harness {
	c := *h
	c.out = out
	return &c
}

// WithEUID returns a copy reading the effective uid via euid.
func (h *Harness) WithEUID(euid func() int) *Harness {
	c := *h
	c.euid = euid
	return &c
}

// Manifest resolves the deploy root and loads fctl.yaml from it. The
// resolved root always wins over the manifest's own deploy_root field:
// the manifest describes the deployment it sits in.
func (h *Harness) Manifest() (*config.Manifest, error) {
	root := h.resolveRoot()
	m, err := h.loader.LoadFrom(root)
	if err != nil {
		return nil, err
	}
	m.DeployRoot = root
	return m, nil
}

func (h *Harness) resolveRoot() string {
	if h.root != "" {
		return h.root
	}
	if env := h.getenv(RootEnvVar); env != "" {
		return env
	}
	return config.DefaultDeployRoot
}

// compose returns the runtime control surface for the manifest's root.
func (h *Harness) compose(m *config.Manifest) *runtime.Compose {
	return runtime.NewCompose(h.runner, h.logger, m.DeployRoot)
}

func (h *Harness) markerStore(m *config.Manifest) *install.StateStore {
	return install.NewStateStore(filepath.Join(m.StateDir, markerFileName))
}

func (h *Harness) snapshotStore(m *config.Manifest) *reconcile.SnapshotStore {
	return reconcile.NewSnapshotStore(filepath.Join(m.StateDir, snapshotFileName))
}

func (h *Harness) runLock(m *config.Manifest) *install.RunLock {
	return install.NewRunLock(filepath.Join(m.StateDir, lockFileName))
}

func (h *Harness) prober(m *config.Manifest) *health.Prober {
	return health.NewProber(m.Health.URL, h.logger).
		WithTuning(m.Health.Interval, m.Health.Attempts, m.Health.Timeout, m.Health.Backoff)
}

func (h *Harness) reconciler(m *config.Manifest) *reconcile.Reconciler {
	return reconcile.NewReconciler(
		h.fs,
		h.snapshotStore(m),
		reconcile.DefaultDependencies(),
		h.compose(m),
		h.logger,
		m.DeployRoot,
	)
}

func (h *Harness) backups(m *config.Manifest) *backup.Manager {
	return backup.NewManager(h.fs, h.logger, m.DeployRoot, filepath.Join(m.StateDir, backupsDirName)).
		WithRetention(m.Backup.Retain)
}

// settleBaseline records the current config fingerprints so the next
// reload reacts to operator edits, not to the run that just finished.
// A failed write is logged and swallowed: the run itself succeeded.
func (h *Harness) settleBaseline(ctx context.Context, m *config.Manifest) {
	if err := h.reconciler(m).WriteBaseline(ctx); err != nil {
		h.logger.Warn(ctx, "failed to write config snapshot baseline",
			ports.F("error", err.Error()))
	}
}

func (h *Harness) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(h.out, format, args...)
}
