package reconcile

import "time"

// CurrentSnapshotVersion is the snapshot file schema version.
const CurrentSnapshotVersion = 1

// Snapshot is the recorded fingerprint of every tracked file at the
// end of the last successful install or reload.
type Snapshot struct {
	Version int                    `json:"version"`
	TakenAt time.Time              `json:"taken_at"`
	Files   map[string]Fingerprint `json:"files"`
}

// NewSnapshot creates a snapshot over the given fingerprints.
func NewSnapshot(files map[string]Fingerprint, at time.Time) *Snapshot {
	copied := make(map[string]Fingerprint, len(files))
	for name, fp := range files {
		copied[name] = fp
	}
	return &Snapshot{
		Version: CurrentSnapshotVersion,
		TakenAt: at.UTC(),
		Files:   copied,
	}
}

// Fingerprint returns the recorded fingerprint for a file, or
// FingerprintAbsent when the file was not recorded.
func (s *Snapshot) Fingerprint(name string) Fingerprint {
	if s == nil || s.Files == nil {
		return FingerprintAbsent
	}
	return s.Files[name]
}
