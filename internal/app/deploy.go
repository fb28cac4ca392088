package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fctl/internal/domain/health"
)

// DeployReport summarizes a deploy or update run.
type DeployReport struct {
	// Services the run brought up or restarted, in compose order.
	Services []string
	// Healthy reports whether the facilitator answered the probe.
	Healthy bool
	// HealthErr carries the probe failure when Healthy is false.
	HealthErr error
	Duration  time.Duration
}

// Deploy pulls current images, brings the stack up, and waits for the
// facilitator to answer its health endpoint. It assumes a provisioned
// deploy root; fresh hosts go through Install. The config snapshot
// baseline is rewritten so a later reload only reacts to operator edits.
func (h *Harness) Deploy(ctx context.Context) (*DeployReport, error) {
	return h.rollout(ctx, false)
}

// Update pulls new images and restarts every service onto them, then
// waits for health and rewrites the snapshot baseline. Unlike reload it
// restarts unconditionally: image changes leave config files untouched,
// so the reconciler would see nothing to do.
func (h *Harness) Update(ctx context.Context) (*DeployReport, error) {
	return h.rollout(ctx, true)
}

func (h *Harness) rollout(ctx context.Context, restart bool) (*DeployReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	lock := h.runLock(m)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	engine := h.compose(m)
	start := time.Now()

	if err := engine.Pull(ctx); err != nil {
		return nil, fmt.Errorf("failed to pull images: %w", err)
	}
	if restart {
		if err := engine.Restart(ctx); err != nil {
			return nil, fmt.Errorf("failed to restart services: %w", err)
		}
	} else {
		if err := engine.Up(ctx); err != nil {
			return nil, fmt.Errorf("failed to start services: %w", err)
		}
	}

	report := &DeployReport{Healthy: true}
	if services, err := engine.Services(ctx); err == nil {
		for _, svc := range services {
			report.Services = append(report.Services, svc.Name)
		}
	}

	if err := h.prober(m).Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var timeout *health.TimeoutError
		if !errors.As(err, &timeout) {
			return nil, err
		}
		report.Healthy = false
		report.HealthErr = err
	}

	h.settleBaseline(ctx, m)
	report.Duration = time.Since(start)
	return report, nil
}
