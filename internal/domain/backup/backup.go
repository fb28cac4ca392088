// Package backup creates and restores timestamped copies of the
// facilitator's deployable files.
package backup

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
)

// ErrSetNotFound is returned when a backup set cannot be found.
var ErrSetNotFound = errors.New("backup set not found")

// StampLayout names backup set directories; lexicographic order is
// chronological order.
const StampLayout = "20060102T150405Z"

// CurrentManifestVersion is the backup set manifest schema version.
const CurrentManifestVersion = 1

const manifestName = "manifest.json"

// Set is one backup: a directory of file copies plus a manifest.
type Set struct {
	ID        string
	Stamp     string
	CreatedAt time.Time
	Files     map[string]string // name -> sha256
}

// setManifest is the JSON document stored beside the copies.
type setManifest struct {
	Version   int               `json:"version"`
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Files     map[string]string `json:"files"`
}

// DefaultFiles returns the file names a backup covers: every
// reload-tracked file plus the harness manifest.
func DefaultFiles() []string {
	tracked := reconcile.DefaultDependencies().TrackedFiles()
	return append(tracked, config.ManifestFileName)
}
