package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Materializer generates the facilitator's runtime config files and, on
// a fresh root, the manifest itself. Files are only written when missing:
// config.toml may carry operator edits, .env holds a generated signing
// key, and fctl.yaml belongs to the operator, so an existing file is
// never overwritten.
type Materializer struct {
	fs       ports.FileSystem
	logger   ports.Logger
	manifest *Manifest
}

// NewMaterializer creates a materializer for the manifest's deploy root.
func NewMaterializer(fs ports.FileSystem, logger ports.Logger, m *Manifest) *Materializer {
	return &Materializer{fs: fs, logger: logger, manifest: m}
}

// Pending lists the config files that do not exist yet.
func (mz *Materializer) Pending(_ context.Context) ([]string, error) {
	var pending []string
	for _, name := range []string{FacilitatorFileName, EnvFileName, ManifestFileName} {
		if !mz.fs.Exists(filepath.Join(mz.manifest.DeployRoot, name)) {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// Materialize writes every pending config file and returns the names
// written.
func (mz *Materializer) Materialize(ctx context.Context) ([]string, error) {
	pending, err := mz.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	if err := mz.fs.MkdirAll(mz.manifest.DeployRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create deploy root: %w", err)
	}

	var written []string
	for _, name := range pending {
		content, err := mz.generate(name)
		if err != nil {
			return written, err
		}
		path := filepath.Join(mz.manifest.DeployRoot, name)
		if err := mz.fs.WriteFile(path, content, fileMode(name)); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		mz.logger.Info(ctx, "materialized config file", ports.F("file", name))
		written = append(written, name)
	}
	return written, nil
}

func (mz *Materializer) generate(name string) ([]byte, error) {
	switch name {
	case FacilitatorFileName:
		return EncodeFacilitatorConfig(DefaultFacilitatorConfig(mz.manifest))
	case EnvFileName:
		return GenerateEnv(mz.manifest)
	case ManifestFileName:
		return EncodeManifest(mz.manifest)
	default:
		return nil, fmt.Errorf("unknown config file %q", name)
	}
}

// fileMode keeps the signing key out of reach of other users. The
// manifest carries no secrets.
func fileMode(name string) os.FileMode {
	if name == ManifestFileName {
		return 0o644
	}
	return 0o600
}
