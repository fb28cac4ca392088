package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fctl/internal/runtime"
)

// StatusReport is a read-only view of one deployment. Areas that could
// not be inspected carry their error instead of failing the whole
// report: status gets run exactly when something is broken.
type StatusReport struct {
	Root        string
	Services    []runtime.Service
	ServicesErr error

	// Healthy is a single immediate probe, not a bounded wait.
	Healthy   bool
	HealthErr error
	HealthURL string

	// ResumeOrdinal is the last completed installer step when an
	// interrupted install left markers behind, 0 otherwise.
	ResumeOrdinal int
	StateErr      error

	// SnapshotTakenAt is zero until a reload baseline exists.
	SnapshotTakenAt time.Time
	// PendingReload lists tracked files edited since the snapshot.
	PendingReload []string
	PendingErr    error
}

// Status inspects the deployment without changing it. It takes no run
// lock, so it works while an install or deploy is in flight.
func (h *Harness) Status(ctx context.Context) (*StatusReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Root: m.DeployRoot, HealthURL: m.Health.URL}

	report.Services, report.ServicesErr = h.compose(m).Services(ctx)

	if err := h.prober(m).Check(ctx); err != nil {
		report.HealthErr = err
	} else {
		report.Healthy = true
	}

	if state, err := h.markerStore(m).Load(ctx); err != nil {
		report.StateErr = err
	} else if !state.Empty() {
		report.ResumeOrdinal = state.MaxOrdinal()
	}

	if snap, err := h.snapshotStore(m).Load(ctx); err != nil {
		report.PendingErr = err
	} else if snap != nil {
		report.SnapshotTakenAt = snap.TakenAt
		report.PendingReload, report.PendingErr = h.reconciler(m).PendingChanges(ctx)
	}

	return report, nil
}
