package app

import (
	"context"

	"github.com/felixgeelhaar/fctl/internal/domain/doctor"
)

// Doctor runs the full diagnostic suite against the deployment and
// returns the per-check results. Nothing on the host is mutated.
func (h *Harness) Doctor(ctx context.Context) (doctor.Report, error) {
	m, err := h.Manifest()
	if err != nil {
		return doctor.Report{}, err
	}

	checks := doctor.DefaultChecks(h.fs, h.runner, m, h.compose(m), h.prober(m), h.euid)
	return doctor.New(h.logger, checks...).Run(ctx), nil
}
