package app

import (
	"context"

	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
)

// Reload fingerprints the tracked config files, restarts exactly the
// services whose inputs changed, and records the new snapshot. With no
// changes it touches nothing.
func (h *Harness) Reload(ctx context.Context) (*reconcile.Report, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	lock := h.runLock(m)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	return h.reconciler(m).Reconcile(ctx)
}

// PendingReload lists the tracked files edited since the reload
// baseline without restarting anything. On a root that has never
// settled a baseline every present tracked file counts as pending.
func (h *Harness) PendingReload(ctx context.Context) ([]string, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}
	return h.reconciler(m).PendingChanges(ctx)
}
