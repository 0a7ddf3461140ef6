package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound    ErrorCode = "CONFIG-001"
	ErrCodeConfigUnmarshal   ErrorCode = "CONFIG-002"
	ErrCodeConfigBadPattern  ErrorCode = "CONFIG-003"
	ErrCodeConfigMissingCmd  ErrorCode = "CONFIG-004"
	ErrCodeConfigDuplicateID ErrorCode = "CONFIG-005"
	ErrCodeConfigBadKind     ErrorCode = "CONFIG-006"
	ErrCodeConfigEmptyScope  ErrorCode = "CONFIG-007"

	// Tool errors (TOOL-001 to TOOL-099)
	ErrCodeToolFailed   ErrorCode = "TOOL-001"
	ErrCodeToolNotFound ErrorCode = "TOOL-002"
	ErrCodeToolTimeout  ErrorCode = "TOOL-003"
	ErrCodeToolCrashed  ErrorCode = "TOOL-004"

	// Run errors (RUN-001 to RUN-099)
	ErrCodeRunAborted ErrorCode = "RUN-001"
	ErrCodeRunFailed  ErrorCode = "RUN-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeGitFailed       ErrorCode = "IO-004"
)

// GateError represents an enhanced error with code, suggestions, and documentation
type GateError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *GateError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *GateError) Unwrap() error {
	return e.Cause
}

// New creates a new GateError
func New(code ErrorCode, message string) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new GateError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *GateError) WithSuggestion(suggestion string) *GateError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *GateError) WithSuggestions(suggestions ...string) *GateError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// IsConfig reports whether the error carries a configuration error code.
func (e *GateError) IsConfig() bool {
	return strings.HasPrefix(string(e.Code), "CONFIG-")
}

// Common error constructors for frequently used errors

// NewConfigNotFoundError creates a rule file not found error
func NewConfigNotFoundError(path string) *GateError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("rule file not found: %s", path)).
		WithSuggestion("Run 'rungate rules new' to create a default rule file").
		WithSuggestion("Check if the file path is correct")
}

// NewBadPatternError creates a malformed pattern error
func NewBadPatternError(ruleID, pattern string, cause error) *GateError {
	return Wrap(ErrCodeConfigBadPattern, fmt.Sprintf("rule %q has malformed pattern %q", ruleID, pattern), cause).
		WithSuggestion("Patterns are Go regular expressions searched (unanchored) against repository-relative slash paths").
		WithSuggestion("Run 'rungate rules validate' to check the whole table")
}

// NewMissingCommandError creates a missing command error
func NewMissingCommandError(ruleID string) *GateError {
	return New(ErrCodeConfigMissingCmd, fmt.Sprintf("rule %q has no entry command", ruleID)).
		WithSuggestion("Set 'entry' to the executable the rule should invoke")
}

// NewToolNotFoundError creates a missing executable error
func NewToolNotFoundError(ruleID, entry string) *GateError {
	return New(ErrCodeToolNotFound, fmt.Sprintf("rule %q: executable %q not found", ruleID, entry)).
		WithSuggestion(fmt.Sprintf("Install %s or adjust the rule's entry", entry)).
		WithSuggestion("Ensure the tool is on PATH for the gate process")
}

// NewAbortedError creates a cancelled-run error
func NewAbortedError(cause error) *GateError {
	return Wrap(ErrCodeRunAborted, "gate run aborted before a verdict was reached", cause).
		WithSuggestion("Treat the run as indeterminate, not as a pass")
}
