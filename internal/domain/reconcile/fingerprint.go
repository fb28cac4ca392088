// Package reconcile implements config-driven service reconciliation:
// tracked files are fingerprinted, compared against the recorded
// snapshot, and only the services that depend on changed files are
// restarted.
package reconcile

import (
	"fmt"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Fingerprint is the content hash of one tracked file. A missing file
// carries the absent fingerprint so deletion registers as a change.
type Fingerprint string

// FingerprintAbsent marks a tracked file that does not exist.
const FingerprintAbsent Fingerprint = ""

// ComputeFingerprint hashes the file at path. Missing files yield
// FingerprintAbsent without error.
func ComputeFingerprint(fs ports.FileSystem, path string) (Fingerprint, error) {
	if !fs.Exists(path) {
		return FingerprintAbsent, nil
	}
	hash, err := fs.FileHash(path)
	if err != nil {
		return FingerprintAbsent, fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}
	return Fingerprint(hash), nil
}
