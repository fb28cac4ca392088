// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"io"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	// Run executes the command and buffers its output until it exits.
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)

	// Stream executes the command with stdout and stderr attached to the
	// given writers. It blocks until the command exits or the context is
	// cancelled. Used for long-lived invocations such as log following.
	Stream(ctx context.Context, stdout, stderr io.Writer, command string, args ...string) error

	// Interactive executes the command with the caller's terminal
	// attached. Used for invocations that need operator input, such as
	// launching an editor.
	Interactive(ctx context.Context, command string, args ...string) error
}
