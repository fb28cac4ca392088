package app

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/fctl/internal/domain/backup"
)

// BackupReport is the outcome of one backup run.
type BackupReport struct {
	Set backup.Set
	// Pruned lists the stamps removed to honor the retention count.
	Pruned []string
}

// Backup snapshots the deployable files into a fresh backup set and
// prunes sets beyond the configured retention.
func (h *Harness) Backup(ctx context.Context) (*BackupReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	lock := h.runLock(m)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	mgr := h.backups(m)
	set, err := mgr.Create(ctx)
	if err != nil {
		return nil, err
	}
	pruned, err := mgr.Prune(ctx)
	if err != nil {
		return &BackupReport{Set: *set}, fmt.Errorf("backup created but pruning failed: %w", err)
	}
	return &BackupReport{Set: *set, Pruned: pruned}, nil
}

// Backups lists the stored backup sets, newest first.
func (h *Harness) Backups(ctx context.Context) ([]backup.Set, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}
	return h.backups(m).List(ctx)
}

// Restore copies a backup set's files back into the deploy root. With
// restart the services depending on the restored files are bounced and
// the reload baseline settles on the restored content; without it the
// changes stay visible to status and the next reload.
func (h *Harness) Restore(ctx context.Context, key string, restart bool) (*backup.RestoreReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	lock := h.runLock(m)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	report, err := h.backups(m).Restore(ctx, key)
	if err != nil {
		return nil, err
	}

	if restart && len(report.RestartSet) > 0 {
		if err := h.compose(m).Restart(ctx, report.RestartSet...); err != nil {
			return report, fmt.Errorf("files restored but restart failed: %w", err)
		}
		h.settleBaseline(ctx, m)
	}
	return report, nil
}
