package config

import (
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeManifestNotFound = "MANIFEST_NOT_FOUND"
	ErrCodeManifestParse    = "MANIFEST_PARSE"
	ErrCodeManifestInvalid  = "MANIFEST_INVALID"
	ErrCodeTemplateInvalid  = "TEMPLATE_INVALID"
	ErrCodeTargetUnknown    = "TARGET_UNKNOWN"
)

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "MANIFEST_NOT_FOUND")
	Message    string // User-friendly error message
	Context    string // File path, field name, or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}

	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// WithContext returns a new UserError with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	return &UserError{
		Code:       e.Code,
		Message:    e.Message,
		Context:    ctx,
		Suggestion: e.Suggestion,
		Underlying: e.Underlying,
	}
}

// WithSuggestion returns a new UserError with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	return &UserError{
		Code:       e.Code,
		Message:    e.Message,
		Context:    e.Context,
		Suggestion: suggestion,
		Underlying: e.Underlying,
	}
}

// WithUnderlying returns a new UserError wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	return &UserError{
		Code:       e.Code,
		Message:    e.Message,
		Context:    e.Context,
		Suggestion: e.Suggestion,
		Underlying: err,
	}
}

// NewManifestNotFoundError creates an error for a missing manifest file.
func NewManifestNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeManifestNotFound,
		Message:    fmt.Sprintf("manifest file not found: %s", path),
		Context:    path,
		Suggestion: "Check the --config path, or omit it to run with defaults.",
	}
}

// NewManifestParseError creates an error for unparseable manifest YAML.
func NewManifestParseError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeManifestParse,
		Message:    "failed to parse manifest YAML",
		Context:    path,
		Suggestion: "Check the YAML syntax. Common issues: inconsistent indentation, missing colons, unquoted special characters.",
		Underlying: err,
	}
}

// NewManifestInvalidError creates an error for a semantically invalid manifest.
func NewManifestInvalidError(field, message string) *UserError {
	return &UserError{
		Code:    ErrCodeManifestInvalid,
		Message: message,
		Context: field,
	}
}

// NewTemplateError creates an error for a failed template render.
func NewTemplateError(name string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeTemplateInvalid,
		Message:    fmt.Sprintf("failed to render %s", name),
		Context:    name,
		Underlying: err,
	}
}

// NewTargetUnknownError creates an error for an unknown edit target.
func NewTargetUnknownError(name string, valid []string) *UserError {
	return &UserError{
		Code:       ErrCodeTargetUnknown,
		Message:    fmt.Sprintf("unknown edit target %q", name),
		Suggestion: fmt.Sprintf("Valid targets: %s.", strings.Join(valid, ", ")),
	}
}
