// Package python finds Python interpreters and describes virtual environments.
package python

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/crpt-tools/guilaunch/internal/runner"
)

// ErrNotFound is returned when no candidate interpreter qualifies
var ErrNotFound = errors.New("python interpreter not found")

// Interpreter is a discovered python executable
type Interpreter struct {
	Path    string
	Version Version
}

// Finder searches the PATH for a usable interpreter
type Finder struct {
	// Candidates are tried in order, e.g. "python", "py", "python3"
	Candidates []string
	// MinVersion rejects older interpreters; zero accepts anything
	MinVersion Version
	// LookPath resolves a candidate name; defaults to exec.LookPath
	LookPath func(string) (string, error)
	Runner   runner.Runner
	Logger   *slog.Logger
}

// NewFinder creates a Finder using exec.LookPath
func NewFinder(candidates []string, minVersion Version, r runner.Runner, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		Candidates: candidates,
		MinVersion: minVersion,
		LookPath:   exec.LookPath,
		Runner:     r,
		Logger:     logger,
	}
}

// Find returns the first candidate that resolves, runs, and meets MinVersion
func (f *Finder) Find(ctx context.Context) (*Interpreter, error) {
	lookPath := f.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	for _, name := range f.Candidates {
		path, err := lookPath(name)
		if err != nil {
			f.Logger.Debug("interpreter candidate not on PATH", "candidate", name)
			continue
		}

		v, err := f.Probe(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.Logger.Debug("interpreter candidate unusable", "path", path, "err", err)
			continue
		}

		if !f.MinVersion.IsZero() && !v.AtLeast(f.MinVersion) {
			f.Logger.Info("interpreter too old",
				"path", path,
				"version", v.String(),
				"min_version", f.MinVersion.String(),
			)
			continue
		}

		f.Logger.Debug("interpreter found", "path", path, "version", v.String())
		return &Interpreter{Path: path, Version: v}, nil
	}

	return nil, ErrNotFound
}

// Probe runs "<path> --version" and parses the reported version
func (f *Finder) Probe(ctx context.Context, path string) (Version, error) {
	if err := IsExecutable(path); err != nil {
		return Version{}, err
	}

	var out bytes.Buffer
	res, err := f.Runner.Run(ctx, runner.Command{
		Path:   path,
		Args:   []string{"--version"},
		Stdout: &out,
	})
	if err != nil {
		return Version{}, err
	}
	if !res.Success() {
		return Version{}, fmt.Errorf("%s --version exited with status %d", path, res.ExitCode)
	}

	return ParseVersion(out.String())
}
