package runner

import (
	"context"
	"io"
	"time"
)

// Command describes a single child process invocation
type Command struct {
	// Path is the executable to run
	Path string
	// Args are passed after the executable name
	Args []string
	// Dir is the working directory; empty means the launcher's own
	Dir string
	// Env is the full child environment; nil inherits the launcher's
	Env []string
	// Quiet discards the child's stdout and stderr
	Quiet bool
	// Stdout overrides where the child's stdout (and stderr) goes when set
	Stdout io.Writer
}

// Result represents the outcome of a finished child process
type Result struct {
	// Exit status reported by the child
	ExitCode int
	// Wall time between start and exit
	Duration time.Duration
}

// Success reports whether the child exited with status 0
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner starts child processes and waits for them.
//
// Run returns an error only when the process could not be started or was
// cancelled through ctx. A non-zero exit status is reported through
// Result.ExitCode with a nil error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}
