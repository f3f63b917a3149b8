package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExecRunner runs commands as real operating system processes
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// NewExecRunner creates an ExecRunner wired to the launcher's own stdio
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Run executes cmd and waits for it to exit
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env

	switch {
	case c.Quiet:
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	case c.Stdout != nil:
		cmd.Stdout = c.Stdout
		cmd.Stderr = c.Stdout
	default:
		cmd.Stdin = r.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	}

	r.Logger.Debug("starting process", "cmd", describe(c), "dir", c.Dir)

	start := time.Now()
	err := cmd.Run()
	result := &Result{Duration: time.Since(start)}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to start %s: %w", c.Path, err)
		}
		result.ExitCode = exitErr.ExitCode()
		// Killed by a signal; there is no status to propagate.
		if result.ExitCode < 0 {
			result.ExitCode = 1
		}
	}

	r.Logger.Debug("process exited",
		"cmd", describe(c),
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	return result, nil
}

func describe(c Command) string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}
