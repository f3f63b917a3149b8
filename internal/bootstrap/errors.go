package bootstrap

import (
	"errors"
	"fmt"
)

// Stage names a step of the launch pipeline
type Stage string

const (
	StageDiscover    Stage = "discover"
	StageEnvironment Stage = "environment"
	StageToolkit     Stage = "toolkit"
)

// The three conditions that abort a launch.
var (
	ErrNoInterpreter  = errors.New("no python interpreter available")
	ErrEnvCreate      = errors.New("virtual environment creation failed")
	ErrToolkitInstall = errors.New("gui toolkit installation failed")
)

// FatalError stops the pipeline at Stage. Err wraps one of the sentinel
// errors above.
type FatalError struct {
	Stage Stage
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// HandoffError reports that the application ran but did not succeed.
// ExitCode is the application's own status, or 1 if it never started.
type HandoffError struct {
	ExitCode int
	Err      error
}

func (e *HandoffError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("application failed to start: %v", e.Err)
	}
	return fmt.Sprintf("application exited with status %d", e.ExitCode)
}

func (e *HandoffError) Unwrap() error {
	return e.Err
}

func fatal(stage Stage, sentinel, cause error) *FatalError {
	if cause == nil {
		return &FatalError{Stage: stage, Err: sentinel}
	}
	return &FatalError{Stage: stage, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}
