package app

import (
	"context"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
)

// InstallOptions configures an install run.
type InstallOptions struct {
	// Force re-executes every step regardless of markers and checks.
	Force bool

	// Observer receives step lifecycle events, e.g. for progress UIs.
	Observer install.Observer
}

// Install provisions the host end to end: OS packages, container
// runtime, deployment bundle, config materialization, images, services.
// Interrupted runs resume from the first unmarked step.
func (h *Harness) Install(ctx context.Context, opts InstallOptions) (*install.RunReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	pre := install.NewPreconditions(h.fs, h.runner, m.DeployRoot).
		WithResourceFloors(m.Resources.MinDiskMB, m.Resources.MinMemoryMB).
		WithEUID(h.euid)
	if err := pre.Verify(ctx); err != nil {
		return nil, err
	}

	seq, err := h.installSequence(m)
	if err != nil {
		return nil, err
	}

	runner := install.NewRunner(h.markerStore(m), h.runLock(m), h.logger).
		WithHealthProbe(h.prober(m).Wait)
	if opts.Observer != nil {
		runner = runner.WithObserver(opts.Observer)
	}

	report, err := runner.Run(ctx, seq, opts.Force)
	if err != nil {
		return report, err
	}

	if report.Completed {
		h.settleBaseline(ctx, m)
	}
	return report, nil
}

// installSequence assembles the six provisioning steps for the manifest.
func (h *Harness) installSequence(m *config.Manifest) (*install.Sequence, error) {
	bundle, err := h.renderBundle(m)
	if err != nil {
		return nil, err
	}

	engine := h.compose(m)
	materializer := config.NewMaterializer(h.fs, h.logger, m)

	return install.NewSequence(
		install.NewSystemUpdateStep(h.runner),
		install.NewInstallRuntimeStep(h.runner, engine).
			WithMinVersions(m.Runtime.MinEngine, m.Runtime.MinCompose),
		install.NewDeployFilesStep(h.fs, m.DeployRoot, bundle),
		install.NewMaterializeConfigStep(materializer),
		install.NewPullImagesStep(engine, m.Images.Refs()),
		install.NewStartServicesStep(engine),
	)
}

// renderBundle renders the static deployment artifacts.
func (h *Harness) renderBundle(m *config.Manifest) ([]install.BundleFile, error) {
	rendered, err := config.RenderBundle(m)
	if err != nil {
		return nil, err
	}

	bundle := make([]install.BundleFile, 0, len(rendered))
	for _, f := range rendered {
		bundle = append(bundle, install.BundleFile{Name: f.Name, Content: f.Content, Mode: f.Mode})
	}
	return bundle, nil
}
