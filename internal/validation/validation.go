// Package validation provides input validation utilities to prevent
// command injection and path traversal in operator-supplied input.
// Every value that ends up in a docker argv or a filesystem path goes
// through here before the app layer sees it.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrInvalidService   = errors.New("invalid service name")
	ErrInvalidBackupKey = errors.New("invalid backup key")
	ErrInvalidPath      = errors.New("invalid path")
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrCommandInjection = errors.New("potential command injection detected")
	ErrTailOutOfRange   = errors.New("tail line count out of range")
)

// MaxTailLines bounds how many log lines a single request may ask for.
const MaxTailLines = 10000

// Compiled regex patterns for validation (compiled once for performance).
var (
	// serviceNameRegex matches compose service names.
	// Examples: "facilitator", "proxy", "facilitator-2"
	serviceNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

	// backupKeyRegex matches backup set stamps and IDs.
	// Examples: "20250115T101500Z", "6a1f1c2e-9d7b-4f5a-8c3d-2b1a0e9f8d7c"
	backupKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

	// shellMetaChars contains shell metacharacters that could enable injection
	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidateServiceName validates a compose service name before it is
// placed in a docker argv.
func ValidateServiceName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}

	if len(name) > 128 {
		return fmt.Errorf("%w: name too long (max 128 characters)", ErrInvalidService)
	}

	if !serviceNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidService, name)
	}

	// Check for shell metacharacters (defense in depth)
	if containsShellMeta(name) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, name)
	}

	return nil
}

// ValidateBackupKey validates a backup set stamp or ID. The key becomes
// a directory name under the state dir, so stricter rules apply than
// for ordinary input.
func ValidateBackupKey(key string) error {
	if key == "" {
		return ErrEmptyInput
	}

	if len(key) > 64 {
		return fmt.Errorf("%w: key too long (max 64 characters)", ErrInvalidBackupKey)
	}

	if !backupKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidBackupKey, key)
	}

	if containsShellMeta(key) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, key)
	}

	return nil
}

// ValidateRootPath validates a deploy root override. Empty is allowed
// and means the configured default applies.
func ValidateRootPath(path string) error {
	if path == "" {
		return nil
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	if strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("%w: path contains newlines", ErrInvalidPath)
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %q must be absolute", ErrInvalidPath, path)
	}

	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}

	return nil
}

// ValidateTail validates a log tail line count. Zero is allowed and
// means the default applies.
func ValidateTail(lines int) error {
	if lines < 0 {
		return fmt.Errorf("%w: %d is negative", ErrTailOutOfRange, lines)
	}
	if lines > MaxTailLines {
		return fmt.Errorf("%w: %d exceeds maximum of %d", ErrTailOutOfRange, lines, MaxTailLines)
	}
	return nil
}

// containsShellMeta checks if a string contains shell metacharacters.
func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	// Normalize the path to catch encoded traversal attempts
	normalized := filepath.Clean(path)

	segments := strings.Split(normalized, string(filepath.Separator))
	for _, seg := range segments {
		if seg == ".." {
			return true
		}
	}

	// Check for URL-encoded traversal
	if strings.Contains(path, "%2e%2e") || strings.Contains(path, "%2E%2E") {
		return true
	}

	return false
}
