package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an advisory file lock held for the duration of a run so
// concurrent fctl invocations against the same deployment cannot
// interleave step execution or marker writes.
type RunLock struct {
	fl *flock.Flock
}

// NewRunLock creates a lock backed by the given file path.
func NewRunLock(path string) *RunLock {
	return &RunLock{fl: flock.New(path)}
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.fl.Path()
}

// Acquire takes the lock without blocking. A lock already held by
// another process yields a lock-held error.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !locked {
		return NewLockHeldError(l.fl.Path())
	}
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *RunLock) Release() error {
	return l.fl.Unlock()
}
