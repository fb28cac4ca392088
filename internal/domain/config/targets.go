package config

import (
	"path/filepath"
	"sort"
)

// editTargets maps the short names accepted by "fctl edit" to file
// names inside the deploy root.
var editTargets = map[string]string{
	"config":   FacilitatorFileName,
	"env":      EnvFileName,
	"caddy":    CaddyFileName,
	"compose":  ComposeFileName,
	"manifest": ManifestFileName,
}

// EditTargets returns the valid edit target names, sorted.
func EditTargets() []string {
	names := make([]string, 0, len(editTargets))
	for name := range editTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveEditTarget maps a target name to the absolute path of the
// file it refers to.
func ResolveEditTarget(m *Manifest, name string) (string, error) {
	file, ok := editTargets[name]
	if !ok {
		return "", NewTargetUnknownError(name, EditTargets())
	}
	return filepath.Join(m.DeployRoot, file), nil
}
