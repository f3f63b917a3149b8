package python

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Layout locates the files inside a virtual environment directory. Windows
// environments keep their executables under Scripts\, everything else under bin/.
type Layout struct {
	Root    string
	Windows bool
}

// NewLayout returns the layout for the current operating system
func NewLayout(root string) Layout {
	return Layout{Root: root, Windows: runtime.GOOS == "windows"}
}

// BinDir is the directory holding the environment's executables
func (l Layout) BinDir() string {
	if l.Windows {
		return filepath.Join(l.Root, "Scripts")
	}
	return filepath.Join(l.Root, "bin")
}

// Interpreter is the environment's own python executable
func (l Layout) Interpreter() string {
	if l.Windows {
		return filepath.Join(l.BinDir(), "python.exe")
	}
	return filepath.Join(l.BinDir(), "python")
}

// ActivateScript is the shell script that activates the environment
func (l Layout) ActivateScript() string {
	if l.Windows {
		return filepath.Join(l.BinDir(), "activate.bat")
	}
	return filepath.Join(l.BinDir(), "activate")
}

// Exists reports whether the environment directory is present
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// HasInterpreter reports whether the environment holds an executable interpreter
func (l Layout) HasInterpreter() bool {
	return IsExecutable(l.Interpreter()) == nil
}

// ErrNotExecutable is returned for paths that cannot be run as a program
var ErrNotExecutable = errors.New("not an executable file")

// IsExecutable checks that path names a file the launcher can run.
func IsExecutable(path string) error {
	return isExecutable(path, os.Stat, runtime.GOOS == "windows")
}

// isExecutable mirrors exec.LookPath. Windows has no execute bit and reports
// app execution aliases (the Microsoft Store python.exe) as irregular
// reparse points, so any non-directory qualifies there.
func isExecutable(path string, stat func(string) (fs.FileInfo, error), windows bool) error {
	info, err := stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode()
	if windows {
		if mode.IsDir() {
			return fmt.Errorf("%s: %w", path, ErrNotExecutable)
		}
		return nil
	}
	if !mode.IsRegular() || mode.Perm()&0o111 == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotExecutable)
	}
	return nil
}
