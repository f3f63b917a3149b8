// Package bootstrap prepares a Python environment for the GUI application
// and hands off to it.
//
// A launch runs five steps in order:
//  1. Discover a base interpreter on PATH
//  2. Resolve, create and activate the virtual environment (optional)
//  3. Make sure the GUI toolkit is importable, installing it if not
//  4. Install the optional requirement manifests, ignoring failures
//  5. Start the application and report its exit status
//
// Only a missing interpreter, a failed environment creation and a failed
// toolkit installation abort the launch.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/crpt-tools/guilaunch/internal/console"
	"github.com/crpt-tools/guilaunch/internal/python"
	"github.com/crpt-tools/guilaunch/internal/runner"
)

// Finder locates the base interpreter
type Finder interface {
	Find(ctx context.Context) (*python.Interpreter, error)
}

// UI receives the operator-facing messages of a launch
type UI interface {
	Banner()
	Info(id console.Msg, args ...any)
	OK(id console.Msg, args ...any)
	Warn(id console.Msg, args ...any)
	Fail(id console.Msg, args ...any)
	Hint(command string)
	Pause()
}

// Options configures a Launcher. Relative paths are resolved against Dir.
type Options struct {
	Dir string

	UseVenv bool
	VenvDir string
	// Layout builds the venv layout for a root; defaults to python.NewLayout
	Layout func(root string) python.Layout

	ToolkitPackage string
	ToolkitModule  string

	Manifests []string
	PipArgs   []string

	Entry    string
	Fallback string
	// Args are passed to the application after Entry
	Args []string

	// MinVersion is only used to word the missing-interpreter message
	MinVersion python.Version
}

// Launcher runs the launch pipeline. A Launcher is not safe for concurrent use.
type Launcher struct {
	opts    Options
	finder  Finder
	runner  runner.Runner
	ui      UI
	logger  *slog.Logger
	environ func() []string

	// interpreter is written once by discovery (and again by activation)
	// and read by every later step.
	interpreter string
	env         []string
}

// New creates a Launcher
func New(opts Options, finder Finder, r runner.Runner, ui UI, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Layout == nil {
		opts.Layout = python.NewLayout
	}
	return &Launcher{
		opts:    opts,
		finder:  finder,
		runner:  r,
		ui:      ui,
		logger:  logger,
		environ: os.Environ,
	}
}

// Run executes the whole launch. The returned error is a *FatalError, a
// *HandoffError, or the context's error when the launch was interrupted.
// The descriptor is returned in every case and reflects how far the launch got.
func (l *Launcher) Run(ctx context.Context) (d *Descriptor, err error) {
	l.reset()
	d = l.newDescriptor()
	defer func() { d.Interpreter = l.interpreter }()

	l.ui.Banner()
	l.logger.Info("launch started", "dir", l.opts.Dir, "venv", l.opts.UseVenv)

	if err := l.discover(ctx, d); err != nil {
		return d, l.abort(ctx, err)
	}

	if l.opts.UseVenv {
		if err := l.resolveEnvironment(ctx, d); err != nil {
			return d, l.abort(ctx, err)
		}
	}

	if err := l.ensureToolkit(ctx, d); err != nil {
		return d, l.abort(ctx, err)
	}

	l.installManifests(ctx, d)
	if ctx.Err() != nil {
		return d, ctx.Err()
	}

	return d, l.handoff(ctx, d)
}

// Check describes the environment without changing it: nothing is created,
// installed or launched, and the UI is not used.
func (l *Launcher) Check(ctx context.Context) (*Descriptor, error) {
	l.reset()
	d := l.newDescriptor()

	interp, err := l.finder.Find(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return d, ctx.Err()
		}
		return d, fatal(StageDiscover, ErrNoInterpreter, err)
	}
	d.BaseInterpreter = interp.Path
	d.PythonVersion = interp.Version.String()
	l.interpreter = interp.Path

	if l.opts.UseVenv {
		layout := l.opts.Layout(l.path(l.opts.VenvDir))
		d.VenvDir = layout.Root
		d.VenvDirExists = layout.Exists()
		d.VenvExisted = layout.HasInterpreter()
		if d.VenvExisted && l.activate(layout) == nil {
			d.VenvActive = true
		}
	}

	d.ToolkitPresent = l.toolkitImportable(ctx)
	d.Manifests = l.existingManifests()
	d.Interpreter = l.interpreter

	return d, ctx.Err()
}

// FallbackCommand is the command suggested to the operator when the
// application fails.
func (l *Launcher) FallbackCommand() string {
	target := l.opts.Fallback
	if target == "" {
		target = l.opts.Entry
	}
	return "python " + target
}

func (l *Launcher) discover(ctx context.Context, d *Descriptor) error {
	l.ui.Info(console.MsgCheckingPython)

	interp, err := l.finder.Find(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Error("no usable interpreter", "err", err)
		l.ui.Fail(console.MsgPythonMissing, l.minVersionLabel())
		l.ui.Info(console.MsgPythonInstallHint)
		return fatal(StageDiscover, ErrNoInterpreter, err)
	}

	d.BaseInterpreter = interp.Path
	d.PythonVersion = interp.Version.String()
	l.interpreter = interp.Path

	l.logger.Info("interpreter found", "path", interp.Path, "version", d.PythonVersion)
	l.ui.OK(console.MsgPythonFound, d.PythonVersion, interp.Path)
	return nil
}

func (l *Launcher) ensureToolkit(ctx context.Context, d *Descriptor) error {
	pkg := l.opts.ToolkitPackage
	l.ui.Info(console.MsgCheckingToolkit, pkg)

	if l.toolkitImportable(ctx) {
		d.ToolkitPresent = true
		l.ui.OK(console.MsgToolkitPresent, pkg)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	l.ui.Warn(console.MsgInstallingToolkit, pkg)
	l.logger.Info("installing toolkit", "package", pkg, "interpreter", l.interpreter)

	res, err := l.python(ctx, false, l.pipInstall(pkg)...)
	if cause := failure(res, err); cause != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Error("toolkit installation failed", "package", pkg, "err", cause)
		l.ui.Fail(console.MsgToolkitFailed, pkg)
		return fatal(StageToolkit, ErrToolkitInstall, cause)
	}

	d.ToolkitPresent = true
	d.ToolkitInstalled = true
	l.logger.Info("toolkit installed", "package", pkg)
	l.ui.OK(console.MsgToolkitInstalled, pkg)
	return nil
}

func (l *Launcher) toolkitImportable(ctx context.Context) bool {
	res, err := l.python(ctx, true, "-c", "import "+l.opts.ToolkitModule)
	return err == nil && res.Success()
}

// installManifests is best effort: a failed install is logged and skipped.
func (l *Launcher) installManifests(ctx context.Context, d *Descriptor) {
	for _, path := range l.existingManifests() {
		if ctx.Err() != nil {
			return
		}
		d.Manifests = append(d.Manifests, path)
		l.ui.Info(console.MsgInstallingManifest, path)

		res, err := l.python(ctx, true, l.pipInstall("-r", path)...)
		if cause := failure(res, err); cause != nil {
			l.logger.Debug("manifest install failed, continuing", "manifest", path, "err", cause)
			continue
		}
		l.logger.Info("manifest installed", "manifest", path)
	}
}

func (l *Launcher) existingManifests() []string {
	found := make([]string, 0, len(l.opts.Manifests))
	for _, m := range l.opts.Manifests {
		path := l.path(m)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			found = append(found, path)
		}
	}
	return found
}

func (l *Launcher) handoff(ctx context.Context, d *Descriptor) error {
	l.ui.Info(console.MsgStartingApp)
	l.logger.Info("starting application", "entry", l.opts.Entry, "interpreter", l.interpreter)

	args := append([]string{l.opts.Entry}, l.opts.Args...)
	res, err := l.python(ctx, false, args...)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	code := 0
	switch {
	case err != nil:
		code = 1
	case !res.Success():
		code = res.ExitCode
	}
	d.ExitCode = code

	if code == 0 {
		l.logger.Info("application exited", "exit_code", 0)
		return nil
	}

	l.logger.Error("application failed", "exit_code", code, "err", err)
	l.ui.Fail(console.MsgAppFailed, code)
	l.ui.Hint(l.FallbackCommand())
	l.ui.Pause()
	return &HandoffError{ExitCode: code, Err: err}
}

// python runs the resolved interpreter with args in the base directory
func (l *Launcher) python(ctx context.Context, quiet bool, args ...string) (*runner.Result, error) {
	if err := python.IsExecutable(l.interpreter); err != nil {
		return nil, fmt.Errorf("resolved interpreter: %w", err)
	}
	return l.runner.Run(ctx, runner.Command{
		Path:  l.interpreter,
		Args:  args,
		Dir:   l.opts.Dir,
		Env:   l.env,
		Quiet: quiet,
	})
}

func (l *Launcher) pipInstall(args ...string) []string {
	cmd := []string{"-m", "pip", "install"}
	cmd = append(cmd, l.opts.PipArgs...)
	return append(cmd, args...)
}

// abort pauses on fatal errors so the operator can read the diagnostic.
// Interruptions return straight away.
func (l *Launcher) abort(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	l.ui.Pause()
	return err
}

func (l *Launcher) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.opts.Dir, p)
}

func (l *Launcher) minVersionLabel() string {
	v := l.opts.MinVersion
	if v.IsZero() {
		return "3"
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (l *Launcher) reset() {
	l.interpreter = ""
	l.env = nil
}

func (l *Launcher) newDescriptor() *Descriptor {
	return &Descriptor{
		VenvEnabled: l.opts.UseVenv,
		Toolkit:     l.opts.ToolkitPackage,
		Manifests:   []string{},
		Entry:       l.opts.Entry,
	}
}

// failure folds a runner outcome into a single error, nil on success
func failure(res *runner.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("exit status %d", res.ExitCode)
	}
	return nil
}
