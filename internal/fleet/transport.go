// Package fleet pushes a facilitator deployment to remote hosts over
// SSH and reports per-host outcomes.
package fleet

import (
	"context"
	"os"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
)

// Result holds the outcome of one remote command.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the command exited with code 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Connection is an established session with one remote host.
type Connection interface {
	// Run executes a shell command on the remote host.
	Run(ctx context.Context, cmd string) (*Result, error)

	// Upload writes content to a remote path with the given mode.
	Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error

	// Close tears the connection down.
	Close() error
}

// Dialer connects to fleet hosts.
type Dialer interface {
	Dial(ctx context.Context, host config.Host) (Connection, error)
}

// PushFile is one file the orchestrator places on every host.
type PushFile struct {
	Name    string
	Content []byte
	Mode    os.FileMode
}
