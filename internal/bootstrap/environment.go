package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/crpt-tools/guilaunch/internal/console"
	"github.com/crpt-tools/guilaunch/internal/python"
)

// resolveEnvironment makes sure the virtual environment exists, then tries
// to activate it. Only a failed creation is fatal.
func (l *Launcher) resolveEnvironment(ctx context.Context, d *Descriptor) error {
	layout := l.opts.Layout(l.path(l.opts.VenvDir))
	d.VenvDir = layout.Root
	d.VenvDirExists = layout.Exists()

	if layout.HasInterpreter() {
		d.VenvExisted = true
		l.logger.Debug("virtual environment present", "dir", layout.Root)
	} else {
		l.ui.Info(console.MsgCreatingVenv, layout.Root)
		if d.VenvDirExists {
			l.logger.Info("completing bare virtual environment directory", "dir", layout.Root)
		} else {
			l.logger.Info("creating virtual environment", "dir", layout.Root)
		}

		res, err := l.python(ctx, false, "-m", "venv", layout.Root)
		if cause := failure(res, err); cause != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("virtual environment creation failed", "dir", layout.Root, "err", cause)
			l.ui.Fail(console.MsgVenvFailed)
			return fatal(StageEnvironment, ErrEnvCreate, cause)
		}

		d.VenvCreated = true
		l.ui.OK(console.MsgVenvCreated)
	}

	if err := l.activate(layout); err != nil {
		l.logger.Warn("activation failed, using base interpreter", "dir", layout.Root, "err", err)
		l.ui.Warn(console.MsgActivationFailed)
		return nil
	}

	d.VenvActive = true
	l.logger.Info("virtual environment activated", "interpreter", l.interpreter)
	l.ui.OK(console.MsgVenvActivated)
	return nil
}

// activate switches the launcher to the environment's interpreter and gives
// child processes the environment an activation script would set up.
func (l *Launcher) activate(layout python.Layout) error {
	if _, err := os.Stat(layout.ActivateScript()); err != nil {
		return fmt.Errorf("activation script: %w", err)
	}
	if err := python.IsExecutable(layout.Interpreter()); err != nil {
		return err
	}

	l.env = activatedEnv(l.environ(), layout)
	l.interpreter = layout.Interpreter()
	return nil
}

// activatedEnv sets VIRTUAL_ENV, puts the environment's bin directory first
// on PATH and drops PYTHONHOME. Keys compare case-insensitively because
// Windows spells it "Path".
func activatedEnv(base []string, layout python.Layout) []string {
	env := make([]string, 0, len(base)+2)
	var path string
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case strings.EqualFold(key, "PATH"):
			path = value
		case strings.EqualFold(key, "PYTHONHOME"), strings.EqualFold(key, "VIRTUAL_ENV"):
		default:
			env = append(env, kv)
		}
	}

	newPath := layout.BinDir()
	if path != "" {
		newPath += string(os.PathListSeparator) + path
	}
	return append(env, "VIRTUAL_ENV="+layout.Root, "PATH="+newPath)
}
