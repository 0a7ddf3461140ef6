package exitcode

import (
	"errors"
	"os"
	"strings"

	gateerrors "github.com/rungate/rungate/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates the gate passed
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// GateFailed indicates one or more rules reported violations
	GateFailed = 3

	// ConfigError indicates a malformed rule table; nothing was executed
	ConfigError = 4

	// ToolError indicates a tool could not run at all (missing binary, timeout, crash)
	ToolError = 5

	// Interrupted indicates the run was cancelled before a verdict
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var gateErr *gateerrors.GateError
	if errors.As(err, &gateErr) {
		switch {
		case gateErr.IsConfig():
			return ConfigError
		case gateErr.Code == gateerrors.ErrCodeRunAborted:
			return Interrupted
		case gateErr.Code == gateerrors.ErrCodeToolNotFound,
			gateErr.Code == gateerrors.ErrCodeToolTimeout,
			gateErr.Code == gateerrors.ErrCodeToolCrashed:
			return ToolError
		case gateErr.Code == gateerrors.ErrCodeRunFailed,
			gateErr.Code == gateerrors.ErrCodeToolFailed:
			return GateFailed
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case GateFailed:
		return "Gate failed (rule violations found)"
	case ConfigError:
		return "Configuration error (malformed rule table)"
	case ToolError:
		return "Tool error (a check could not run)"
	case Interrupted:
		return "Run interrupted before a verdict"
	default:
		return "Unknown error"
	}
}
