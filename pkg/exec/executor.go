package exec

import (
	"context"
	"io"
)

// CommandExecutor defines an interface for running external commands.
// This abstraction allows for easier testing by providing a mockable interface.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the directories
	// named by the PATH environment variable.
	LookPath(file string) (string, error)

	// Run executes the command to completion, feeding stdin, and returns
	// what it wrote to stdout.
	Run(ctx context.Context, stdin io.Reader, name string, arg ...string) ([]byte, error)

	// Start launches a long-lived process with piped stdio.
	Start(name string, arg ...string) (Process, error)
}

// Process is a running child started by a CommandExecutor.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits.
	Wait() error
	Kill() error
}
