package install

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for installer operations.
const (
	ErrCodePrecondition  = "PRECONDITION_FAILED"
	ErrCodeLockHeld      = "LOCK_HELD"
	ErrCodeStepFailed    = "STEP_FAILED"
	ErrCodeCheckFailed   = "CHECK_FAILED"
	ErrCodeStateCorrupt  = "STATE_CORRUPT"
	ErrCodeSequenceBroke = "SEQUENCE_INVALID"
)

// Error represents an installer error with operator-facing context.
type Error struct {
	Code       string // Error code for categorization
	Message    string // Operator-facing error message
	Step       string // Step ID if applicable
	Ordinal    int    // Step ordinal if applicable (0 when not step-scoped)
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("step %d (%s): %s", e.Ordinal, e.Step, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *Error) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Step != "" {
		fmt.Fprintf(&b, "\n  Step: %d (%s)", e.Ordinal, e.Step)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}

	return b.String()
}

// WithSuggestion returns a new Error with suggestion set.
func (e *Error) WithSuggestion(suggestion string) *Error {
	return &Error{
		Code:       e.Code,
		Message:    e.Message,
		Step:       e.Step,
		Ordinal:    e.Ordinal,
		Suggestion: suggestion,
		Underlying: e.Underlying,
	}
}

// WithUnderlying returns a new Error wrapping another error.
func (e *Error) WithUnderlying(err error) *Error {
	return &Error{
		Code:       e.Code,
		Message:    e.Message,
		Step:       e.Step,
		Ordinal:    e.Ordinal,
		Suggestion: e.Suggestion,
		Underlying: err,
	}
}

// NewPreconditionError creates an error for an unmet run precondition.
// Precondition failures abort the run before any step executes.
func NewPreconditionError(message string) *Error {
	return &Error{
		Code:    ErrCodePrecondition,
		Message: message,
	}
}

// NewLockHeldError creates an error for a run lock held by another process.
func NewLockHeldError(path string) *Error {
	return &Error{
		Code:       ErrCodeLockHeld,
		Message:    fmt.Sprintf("another fctl run holds the lock at %s", path),
		Suggestion: "Wait for the other run to finish, or remove the lock file if no run is active.",
	}
}

// NewStepFailedError creates an error for a step whose action failed.
// The run aborts at this step; completed markers are preserved for resume.
func NewStepFailedError(ordinal int, stepID string, err error) *Error {
	return &Error{
		Code:       ErrCodeStepFailed,
		Message:    "step action failed",
		Step:       stepID,
		Ordinal:    ordinal,
		Suggestion: "Fix the underlying cause and re-run; completed steps will be skipped.",
		Underlying: err,
	}
}

// NewCheckFailedError creates an error for a step whose status check failed.
func NewCheckFailedError(ordinal int, stepID string, err error) *Error {
	return &Error{
		Code:       ErrCodeCheckFailed,
		Message:    "step status check failed",
		Step:       stepID,
		Ordinal:    ordinal,
		Suggestion: "The step could not determine its current status. This may be a transient error.",
		Underlying: err,
	}
}

// NewStateCorruptError creates an error for an unreadable or inconsistent
// marker store. Recovery requires a forced full run or a reset.
func NewStateCorruptError(message string, err error) *Error {
	return &Error{
		Code:       ErrCodeStateCorrupt,
		Message:    message,
		Suggestion: "Run 'fctl install --force' to re-run all steps, or 'fctl reset' to start clean.",
		Underlying: err,
	}
}

// NewSequenceError creates an error for an invalid step sequence definition.
func NewSequenceError(message string) *Error {
	return &Error{
		Code:    ErrCodeSequenceBroke,
		Message: message,
	}
}

// IsPrecondition reports whether err is a precondition or lock failure.
func IsPrecondition(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodePrecondition || e.Code == ErrCodeLockHeld
	}
	return false
}

// IsStateCorrupt reports whether err indicates marker store corruption.
func IsStateCorrupt(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeStateCorrupt
	}
	return false
}
