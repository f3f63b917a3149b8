package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/crpt-tools/guilaunch/internal/console"
	"github.com/crpt-tools/guilaunch/internal/logging"
	"github.com/crpt-tools/guilaunch/internal/python"
	"github.com/crpt-tools/guilaunch/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder struct {
	interp *python.Interpreter
	err    error
}

func (f *stubFinder) Find(ctx context.Context) (*python.Interpreter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.interp, f.err
}

type uiEvent struct {
	kind string
	id   console.Msg
	text string
}

type recordingUI struct {
	events []uiEvent
	pauses int
}

func (u *recordingUI) Banner() { u.events = append(u.events, uiEvent{kind: "banner"}) }
func (u *recordingUI) Info(id console.Msg, _ ...any) {
	u.events = append(u.events, uiEvent{kind: "info", id: id})
}
func (u *recordingUI) OK(id console.Msg, _ ...any) {
	u.events = append(u.events, uiEvent{kind: "ok", id: id})
}
func (u *recordingUI) Warn(id console.Msg, _ ...any) {
	u.events = append(u.events, uiEvent{kind: "warn", id: id})
}
func (u *recordingUI) Fail(id console.Msg, _ ...any) {
	u.events = append(u.events, uiEvent{kind: "fail", id: id})
}
func (u *recordingUI) Hint(command string) {
	u.events = append(u.events, uiEvent{kind: "hint", text: command})
}
func (u *recordingUI) Pause() { u.pauses++ }

func (u *recordingUI) has(kind string, id console.Msg) bool {
	return slices.ContainsFunc(u.events, func(e uiEvent) bool { return e.kind == kind && e.id == id })
}

// Kinds of interpreter invocations the launcher makes
const (
	callVenv     = "venv"
	callImport   = "import"
	callInstall  = "install"
	callManifest = "manifest"
	callHandoff  = "handoff"
)

type call struct {
	kind string
	cmd  runner.Command
}

// scriptedRunner answers each kind of invocation with a canned result
type scriptedRunner struct {
	calls   []call
	results map[string]*runner.Result
	errs    map[string]error
	onVenv  func(cmd runner.Command)
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		results: map[string]*runner.Result{},
		errs:    map[string]error{},
	}
}

func classify(args []string) string {
	switch {
	case len(args) >= 2 && args[0] == "-m" && args[1] == "venv":
		return callVenv
	case len(args) >= 1 && args[0] == "-c":
		return callImport
	case len(args) >= 3 && args[0] == "-m" && args[1] == "pip" && slices.Contains(args, "-r"):
		return callManifest
	case len(args) >= 3 && args[0] == "-m" && args[1] == "pip":
		return callInstall
	default:
		return callHandoff
	}
}

func (r *scriptedRunner) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	kind := classify(cmd.Args)
	r.calls = append(r.calls, call{kind: kind, cmd: cmd})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if kind == callVenv && r.onVenv != nil {
		r.onVenv(cmd)
	}
	if err := r.errs[kind]; err != nil {
		return nil, err
	}
	if res, ok := r.results[kind]; ok {
		return res, nil
	}
	return &runner.Result{}, nil
}

func (r *scriptedRunner) count(kind string) int {
	n := 0
	for _, c := range r.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func (r *scriptedRunner) first(kind string) (runner.Command, bool) {
	for _, c := range r.calls {
		if c.kind == kind {
			return c.cmd, true
		}
	}
	return runner.Command{}, false
}

type fixture struct {
	dir      string
	basePy   string
	venvRoot string
	layout   python.Layout
	runner   *scriptedRunner
	ui       *recordingUI
	finder   *stubFinder
	opts     Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "gui")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	basePy := writeExecutable(t, filepath.Join(root, "system", "python"))
	venvRoot := filepath.Join(root, ".venv")

	posix := func(r string) python.Layout { return python.Layout{Root: r} }

	return &fixture{
		dir:      dir,
		basePy:   basePy,
		venvRoot: venvRoot,
		layout:   posix(venvRoot),
		runner:   newScriptedRunner(),
		ui:       &recordingUI{},
		finder:   &stubFinder{interp: &python.Interpreter{Path: basePy, Version: python.Version{Major: 3, Minor: 11, Patch: 4}}},
		opts: Options{
			Dir:            dir,
			UseVenv:        true,
			VenvDir:        filepath.Join("..", ".venv"),
			Layout:         posix,
			ToolkitPackage: "PyQt6",
			ToolkitModule:  "PyQt6",
			Manifests:      []string{"requirements.txt", filepath.Join("..", "scripts", "requirements.txt")},
			Entry:          "launcher.py",
			Fallback:       "main_window.py",
			MinVersion:     python.Version{Major: 3, Minor: 8},
		},
	}
}

func (f *fixture) launcher() *Launcher {
	l := New(f.opts, f.finder, f.runner, f.ui, logging.Discard())
	l.environ = func() []string { return []string{"PATH=/usr/bin", "PYTHONHOME=/opt/py", "HOME=/home/op"} }
	return l
}

// installVenv lays out a complete environment, as "python -m venv" would
func (f *fixture) installVenv(t *testing.T) {
	t.Helper()
	writeExecutable(t, f.layout.Interpreter())
	require.NoError(t, os.WriteFile(f.layout.ActivateScript(), []byte("# activate\n"), 0o644))
}

func TestRun_NoInterpreter(t *testing.T) {
	f := newFixture(t)
	f.finder.interp = nil
	f.finder.err = python.ErrNotFound

	_, err := f.launcher().Run(context.Background())

	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StageDiscover, fe.Stage)
	assert.ErrorIs(t, err, ErrNoInterpreter)
	assert.Empty(t, f.runner.calls, "no installation step may run without an interpreter")
	assert.True(t, f.ui.has("fail", console.MsgPythonMissing))
	assert.Equal(t, 1, f.ui.pauses)
}

func TestRun_ExistingVenvIsNotRecreated(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.runner.count(callVenv))
	assert.True(t, d.VenvExisted)
	assert.False(t, d.VenvCreated)
	assert.True(t, d.VenvActive)
	assert.Equal(t, f.layout.Interpreter(), d.Interpreter)
	assert.Equal(t, f.basePy, d.BaseInterpreter)
}

func TestRun_CreatesAndActivatesMissingVenv(t *testing.T) {
	f := newFixture(t)
	f.runner.onVenv = func(cmd runner.Command) {
		assert.Equal(t, f.basePy, cmd.Path, "venv must be created by the base interpreter")
		assert.Equal(t, f.venvRoot, cmd.Args[2])
		f.installVenv(t)
	}

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, f.runner.count(callVenv))
	assert.True(t, d.VenvCreated)
	assert.True(t, d.VenvActive)

	imp, ok := f.runner.first(callImport)
	require.True(t, ok)
	assert.Equal(t, f.layout.Interpreter(), imp.Path, "toolkit check must use the new environment")
	assert.Contains(t, imp.Env, "VIRTUAL_ENV="+f.venvRoot)

	// creation happens before activation, activation before the toolkit check
	kinds := make([]string, 0, len(f.runner.calls))
	for _, c := range f.runner.calls {
		kinds = append(kinds, c.kind)
	}
	assert.Equal(t, []string{callVenv, callImport, callHandoff}, kinds)
	assert.True(t, f.ui.has("ok", console.MsgVenvActivated))
}

func TestRun_CompletesBareVenvDirectory(t *testing.T) {
	f := newFixture(t)
	// left behind by an interrupted "python -m venv"
	require.NoError(t, os.MkdirAll(f.venvRoot, 0o755))
	f.runner.onVenv = func(runner.Command) { f.installVenv(t) }

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.True(t, d.VenvDirExists)
	assert.False(t, d.VenvExisted)
	assert.Equal(t, 1, f.runner.count(callVenv))
	assert.True(t, d.VenvCreated)
	assert.True(t, d.VenvActive)
}

func TestRun_VenvCreationFailure(t *testing.T) {
	tests := []struct {
		name   string
		result *runner.Result
		err    error
	}{
		{name: "non-zero exit", result: &runner.Result{ExitCode: 1}},
		{name: "cannot start", err: errors.New("exec format error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.result != nil {
				f.runner.results[callVenv] = tt.result
			}
			if tt.err != nil {
				f.runner.errs[callVenv] = tt.err
			}

			_, err := f.launcher().Run(context.Background())

			var fe *FatalError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, StageEnvironment, fe.Stage)
			assert.ErrorIs(t, err, ErrEnvCreate)
			assert.Zero(t, f.runner.count(callImport))
			assert.Zero(t, f.runner.count(callHandoff))
			assert.Equal(t, 1, f.ui.pauses)
		})
	}
}

func TestRun_ActivationFallsBackToBaseInterpreter(t *testing.T) {
	f := newFixture(t)
	// interpreter present but no activation script
	writeExecutable(t, f.layout.Interpreter())

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.True(t, d.VenvExisted)
	assert.False(t, d.VenvActive)
	assert.Equal(t, f.basePy, d.Interpreter)
	assert.True(t, f.ui.has("warn", console.MsgActivationFailed))

	handoff, ok := f.runner.first(callHandoff)
	require.True(t, ok)
	assert.Equal(t, f.basePy, handoff.Path)
	assert.Nil(t, handoff.Env)
	assert.Zero(t, f.ui.pauses)
}

func TestRun_WithoutVenv(t *testing.T) {
	f := newFixture(t)
	f.opts.UseVenv = false

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.runner.count(callVenv))
	assert.False(t, d.VenvEnabled)
	assert.Empty(t, d.VenvDir)
	assert.Equal(t, f.basePy, d.Interpreter)
}

func TestRun_ToolkitAlreadyImportable(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.runner.count(callInstall))
	assert.True(t, d.ToolkitPresent)
	assert.False(t, d.ToolkitInstalled)

	imp, _ := f.runner.first(callImport)
	assert.Equal(t, []string{"-c", "import PyQt6"}, imp.Args)
	assert.True(t, imp.Quiet)
}

func TestRun_ToolkitInstalled(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	f.opts.PipArgs = []string{"--disable-pip-version-check"}
	f.runner.results[callImport] = &runner.Result{ExitCode: 1}

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	install, ok := f.runner.first(callInstall)
	require.True(t, ok)
	assert.Equal(t, []string{"-m", "pip", "install", "--disable-pip-version-check", "PyQt6"}, install.Args)
	assert.True(t, d.ToolkitInstalled)
	assert.True(t, f.ui.has("ok", console.MsgToolkitInstalled))
	assert.Equal(t, 1, f.runner.count(callHandoff))
}

func TestRun_ToolkitInstallFailure(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	f.runner.results[callImport] = &runner.Result{ExitCode: 1}
	f.runner.results[callInstall] = &runner.Result{ExitCode: 2}

	_, err := f.launcher().Run(context.Background())

	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StageToolkit, fe.Stage)
	assert.ErrorIs(t, err, ErrToolkitInstall)
	assert.Zero(t, f.runner.count(callManifest))
	assert.Zero(t, f.runner.count(callHandoff))
	assert.True(t, f.ui.has("fail", console.MsgToolkitFailed))
	assert.Equal(t, 1, f.ui.pauses)
}

func TestRun_ManifestFailuresDoNotBlockLaunch(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	local := filepath.Join(f.dir, "requirements.txt")
	require.NoError(t, os.WriteFile(local, []byte("requests\n"), 0o644))
	f.runner.results[callManifest] = &runner.Result{ExitCode: 1}

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	// the sibling manifest does not exist and is skipped
	require.Equal(t, 1, f.runner.count(callManifest))
	m, _ := f.runner.first(callManifest)
	assert.Equal(t, []string{"-m", "pip", "install", "-r", local}, m.Args)
	assert.True(t, m.Quiet)
	assert.Equal(t, []string{local}, d.Manifests)

	assert.Equal(t, 1, f.runner.count(callHandoff))
	assert.False(t, f.ui.has("fail", console.MsgAppFailed))
	assert.Zero(t, f.ui.pauses)
}

func TestRun_ManifestStartErrorIgnored(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	scripts := filepath.Join(filepath.Dir(f.dir), "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "requirements.txt"), []byte("pandas\n"), 0o644))
	f.runner.errs[callManifest] = errors.New("pip exploded")

	_, err := f.launcher().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.runner.count(callHandoff))
}

func TestRun_HandoffFailure(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	f.opts.Args = []string{"--debug"}
	f.runner.results[callHandoff] = &runner.Result{ExitCode: 3}

	d, err := f.launcher().Run(context.Background())

	var he *HandoffError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 3, he.ExitCode)
	assert.Equal(t, 3, d.ExitCode)

	handoff, _ := f.runner.first(callHandoff)
	assert.Equal(t, []string{"launcher.py", "--debug"}, handoff.Args)
	assert.Equal(t, f.dir, handoff.Dir)
	assert.False(t, handoff.Quiet)

	assert.True(t, f.ui.has("fail", console.MsgAppFailed))
	assert.True(t, slices.ContainsFunc(f.ui.events, func(e uiEvent) bool {
		return e.kind == "hint" && e.text == "python main_window.py"
	}))
	assert.Equal(t, 1, f.ui.pauses)
}

func TestRun_HandoffCannotStart(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	f.runner.errs[callHandoff] = errors.New("no such file")

	_, err := f.launcher().Run(context.Background())

	var he *HandoffError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 1, he.ExitCode)
	assert.Equal(t, 1, f.ui.pauses)
}

func TestRun_SuccessDoesNotPause(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)

	d, err := f.launcher().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, d.ExitCode)
	assert.Zero(t, f.ui.pauses)
	assert.False(t, slices.ContainsFunc(f.ui.events, func(e uiEvent) bool { return e.kind == "hint" }))
}

func TestRun_Interrupted(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.launcher().Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.ui.pauses)
	assert.Zero(t, f.runner.count(callHandoff))
}

func TestRun_InterpreterMustBeExecutable(t *testing.T) {
	f := newFixture(t)
	f.opts.UseVenv = false
	f.finder.interp = &python.Interpreter{Path: filepath.Join(t.TempDir(), "gone")}

	_, err := f.launcher().Run(context.Background())

	// the toolkit probe and install are refused before any process starts
	assert.ErrorIs(t, err, ErrToolkitInstall)
	assert.Empty(t, f.runner.calls)
}

func TestCheck_HasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	f.runner.results[callImport] = &runner.Result{ExitCode: 1}
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "requirements.txt"), nil, 0o644))

	d, err := f.launcher().Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, f.basePy, d.Interpreter)
	assert.Equal(t, "3.11.4", d.PythonVersion)
	assert.False(t, d.VenvDirExists)
	assert.False(t, d.VenvExisted)
	assert.False(t, d.ToolkitPresent)
	assert.Len(t, d.Manifests, 1)

	assert.Equal(t, 1, f.runner.count(callImport))
	assert.Equal(t, 1, len(f.runner.calls))
	assert.Empty(t, f.ui.events)
}

func TestCheck_UsesExistingVenv(t *testing.T) {
	f := newFixture(t)
	f.installVenv(t)

	d, err := f.launcher().Check(context.Background())
	require.NoError(t, err)

	assert.True(t, d.VenvDirExists)
	assert.True(t, d.VenvExisted)
	assert.True(t, d.VenvActive)
	assert.True(t, d.ToolkitPresent)
	assert.Equal(t, f.layout.Interpreter(), d.Interpreter)
}

func TestCheck_NoInterpreter(t *testing.T) {
	f := newFixture(t)
	f.finder.interp = nil
	f.finder.err = python.ErrNotFound

	_, err := f.launcher().Check(context.Background())
	assert.ErrorIs(t, err, ErrNoInterpreter)
	assert.Zero(t, f.ui.pauses)
}

func TestActivatedEnv(t *testing.T) {
	layout := python.Layout{Root: "/work/.venv"}
	base := []string{"Path=/usr/bin", "PYTHONHOME=/opt/py", "VIRTUAL_ENV=/old", "HOME=/home/op"}

	env := activatedEnv(base, layout)

	assert.Contains(t, env, "HOME=/home/op")
	assert.Contains(t, env, "VIRTUAL_ENV=/work/.venv")
	assert.Contains(t, env, "PATH="+layout.BinDir()+string(os.PathListSeparator)+"/usr/bin")
	for _, kv := range env {
		assert.False(t, strings.HasPrefix(kv, "PYTHONHOME="), "PYTHONHOME must be dropped")
		assert.NotEqual(t, "VIRTUAL_ENV=/old", kv)
	}
}

func TestFallbackCommand(t *testing.T) {
	l := New(Options{Entry: "launcher.py", Fallback: "main_window.py"}, nil, nil, nil, nil)
	assert.Equal(t, "python main_window.py", l.FallbackCommand())

	l = New(Options{Entry: "launcher.py"}, nil, nil, nil, nil)
	assert.Equal(t, "python launcher.py", l.FallbackCommand())
}

func TestCheck_ReportsBareVenvDirectory(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.venvRoot, 0o755))

	d, err := f.launcher().Check(context.Background())
	require.NoError(t, err)

	assert.True(t, d.VenvDirExists)
	assert.False(t, d.VenvExisted)
	assert.False(t, d.VenvActive)
	assert.Zero(t, f.runner.count(callVenv))
}

func TestErrors(t *testing.T) {
	fe := fatal(StageToolkit, ErrToolkitInstall, fmt.Errorf("exit status 1"))
	assert.ErrorIs(t, fe, ErrToolkitInstall)
	assert.Contains(t, fe.Error(), "toolkit")
	assert.Contains(t, fe.Error(), "exit status 1")

	he := &HandoffError{ExitCode: 5}
	assert.Equal(t, "application exited with status 5", he.Error())
}

func writeExecutable(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}
