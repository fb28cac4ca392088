package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/runtime"
)

// Reset stops the stack and removes its containers while keeping named
// volumes and every config file, then clears the installer markers so
// the next install starts from step one.
func (h *Harness) Reset(ctx context.Context) error {
	m, err := h.Manifest()
	if err != nil {
		return err
	}

	lock := h.runLock(m)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := h.takeDown(ctx, m, false); err != nil {
		return err
	}
	if err := h.markerStore(m).Clear(ctx); err != nil {
		return fmt.Errorf("containers removed but markers remain: %w", err)
	}
	return nil
}

// Purge tears down everything fctl created: containers, named volumes,
// and the state directory with its markers, snapshot, and backup sets.
// Config files in the deploy root survive. Callers confirm first.
func (h *Harness) Purge(ctx context.Context) error {
	m, err := h.Manifest()
	if err != nil {
		return err
	}

	lock := h.runLock(m)
	if err := lock.Acquire(); err != nil {
		return err
	}
	// The lock file lives inside the state directory; the held flock
	// survives the unlink below and still releases cleanly.
	defer func() { _ = lock.Release() }()

	if err := h.takeDown(ctx, m, true); err != nil {
		return err
	}
	if err := h.fs.RemoveAll(m.StateDir); err != nil {
		return fmt.Errorf("failed to remove state directory: %w", err)
	}
	return nil
}

// takeDown runs compose down when there is a compose file to run it
// against. A root that was never installed has nothing to take down.
func (h *Harness) takeDown(ctx context.Context, m *config.Manifest, removeVolumes bool) error {
	if !h.fs.Exists(filepath.Join(m.DeployRoot, runtime.ComposeFileName)) {
		return nil
	}
	return h.compose(m).Down(ctx, removeVolumes)
}
