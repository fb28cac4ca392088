package config

import (
	"os"
	"path/filepath"
)

// Loader reads the harness manifest from disk.
type Loader struct{}

// NewLoader creates a manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the manifest at path. A missing file is not an error: the
// harness runs fine on defaults, so Load returns DefaultManifest().
func (l *Loader) Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultManifest(), nil
	}
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		if _, ok := err.(*UserError); ok {
			return nil, err
		}
		return nil, NewManifestParseError(path, err)
	}
	return m, nil
}

// LoadStrict reads the manifest at path and fails when it is missing.
// Commands that only make sense against an explicit manifest use this.
func (l *Loader) LoadStrict(path string) (*Manifest, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewManifestNotFoundError(path)
	}
	return l.Load(path)
}

// LoadFrom resolves the manifest inside a deploy root and loads it.
func (l *Loader) LoadFrom(deployRoot string) (*Manifest, error) {
	return l.Load(filepath.Join(deployRoot, ManifestFileName))
}
