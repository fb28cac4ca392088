package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/fleet"
)

// ErrNoFleetHosts means the manifest has no fleet section to act on.
var ErrNoFleetHosts = errors.New("no fleet hosts configured; add a fleet.hosts section to fctl.yaml")

// FleetDeploy pushes the rendered deployment artifacts to every fleet
// host and restarts whatever depends on them. Local config.toml and
// .env ride along when present, so a tuned local root propagates; hosts
// without them get fresh ones on their next install.
func (h *Harness) FleetDeploy(ctx context.Context) ([]fleet.HostReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}
	if len(m.Fleet.Hosts) == 0 {
		return nil, ErrNoFleetHosts
	}

	files, err := h.fleetFiles(m)
	if err != nil {
		return nil, err
	}

	return h.fleetOrchestrator().Deploy(ctx, m.Fleet.Hosts, m.DeployRoot, files)
}

// FleetStatus asks every fleet host for its service states.
func (h *Harness) FleetStatus(ctx context.Context) ([]fleet.HostReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}
	if len(m.Fleet.Hosts) == 0 {
		return nil, ErrNoFleetHosts
	}

	return h.fleetOrchestrator().Status(ctx, m.Fleet.Hosts, m.DeployRoot)
}

func (h *Harness) fleetOrchestrator() *fleet.Orchestrator {
	return fleet.NewOrchestrator(fleet.NewSSHDialer(h.logger), h.logger)
}

func (h *Harness) fleetFiles(m *config.Manifest) ([]fleet.PushFile, error) {
	rendered, err := config.RenderBundle(m)
	if err != nil {
		return nil, err
	}

	files := make([]fleet.PushFile, 0, len(rendered)+2)
	for _, f := range rendered {
		files = append(files, fleet.PushFile{Name: f.Name, Content: f.Content, Mode: f.Mode})
	}

	for _, name := range []string{config.FacilitatorFileName, config.EnvFileName} {
		path := filepath.Join(m.DeployRoot, name)
		if !h.fs.Exists(path) {
			continue
		}
		content, err := h.fs.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, fleet.PushFile{Name: name, Content: content, Mode: 0o600})
	}
	return files, nil
}
