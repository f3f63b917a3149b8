package cmd

import (
	"errors"
	"fmt"

	"github.com/crpt-tools/guilaunch/internal/bootstrap"
	"github.com/crpt-tools/guilaunch/internal/exitcodes"
)

type configError struct {
	err error
}

func (e *configError) Error() string {
	return fmt.Sprintf("loading config: %v", e.err)
}

func (e *configError) Unwrap() error {
	return e.err
}

// exitCode maps a command error to the process exit status. A failed
// hand-off passes the application's own status through.
func exitCode(err error) int {
	var handoff *bootstrap.HandoffError
	var cfgErr *configError

	switch {
	case err == nil:
		return exitcodes.Success
	case errors.As(err, &handoff):
		return handoff.ExitCode
	case errors.Is(err, bootstrap.ErrNoInterpreter):
		return exitcodes.NoInterpreter
	case errors.Is(err, bootstrap.ErrEnvCreate):
		return exitcodes.EnvCreate
	case errors.Is(err, bootstrap.ErrToolkitInstall):
		return exitcodes.ToolkitInstall
	case errors.As(err, &cfgErr):
		return exitcodes.InvalidConfig
	default:
		return exitcodes.Failure
	}
}

// alreadyReported reports whether the operator has already seen err on the
// console, so Execute does not print it a second time.
func alreadyReported(err error) bool {
	var fatal *bootstrap.FatalError
	var handoff *bootstrap.HandoffError
	return errors.As(err, &fatal) || errors.As(err, &handoff)
}
