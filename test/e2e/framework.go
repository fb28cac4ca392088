// Package e2e drives the built fctl binary against throwaway deploy
// roots. Nothing here talks to a container engine: the suite covers
// the CLI surface that works on a bare host, and leaves engine-backed
// flows to the app-level tests with their mock runners.
package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Harness runs fctl commands against one temp deploy root.
type Harness struct {
	T            *testing.T
	BinaryPath   string
	DeployRoot   string
	EnvVars      map[string]string
	Timeout      time.Duration
	LastOutput   string
	LastError    string
	LastExitCode int
}

// NewHarness builds the fctl binary if needed and creates a fresh
// deploy root for the test. A minimal manifest is always seeded: the
// default state_dir is /var/lib/fctl, and tests must never write
// there.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	root := filepath.Join(t.TempDir(), "deploy")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("failed to create deploy root %s: %v", root, err)
	}

	h := &Harness{
		T:          t,
		BinaryPath: getBinary(t),
		DeployRoot: root,
		EnvVars:    make(map[string]string),
		Timeout:    30 * time.Second,
	}
	h.SeedFile("fctl.yaml", fmt.Sprintf(
		"state_dir: %s\nhealth:\n  url: http://127.0.0.1:1/health\n  interval: 1ms\n  attempts: 2\n  timeout: 50ms\n",
		filepath.Join(root, "state")))
	return h
}

// getBinary returns the path to the fctl binary, building it when
// FCTL_BINARY does not point at one.
func getBinary(t *testing.T) string {
	t.Helper()

	if path := os.Getenv("FCTL_BINARY"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	binaryPath := filepath.Join(t.TempDir(), "fctl-test")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/fctl")
	cmd.Dir = findProjectRoot(t)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to build fctl binary: %v\n%s", err, stderr.String())
	}

	return binaryPath
}

// findProjectRoot walks up from the working directory to the module root.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}

// WithEnv sets an environment variable for subsequent commands.
func (h *Harness) WithEnv(key, value string) *Harness {
	h.EnvVars[key] = value
	return h
}

// WithTimeout sets the per-command timeout.
func (h *Harness) WithTimeout(d time.Duration) *Harness {
	h.Timeout = d
	return h
}

// Run executes fctl against the harness deploy root and returns the
// exit code. Output and stderr are kept for assertions.
func (h *Harness) Run(args ...string) int {
	h.T.Helper()

	full := append([]string{"--root", h.DeployRoot}, args...)
	cmd := exec.Command(h.BinaryPath, full...)
	cmd.Dir = h.DeployRoot

	cmd.Env = os.Environ()
	for k, v := range h.EnvVars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- cmd.Run()
	}()

	select {
	case err := <-done:
		h.LastOutput = stdout.String()
		h.LastError = stderr.String()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				h.LastExitCode = exitErr.ExitCode()
			} else {
				h.LastExitCode = -1
			}
		} else {
			h.LastExitCode = 0
		}
	case <-time.After(h.Timeout):
		_ = cmd.Process.Kill()
		h.T.Fatalf("command timed out after %v: %v", h.Timeout, args)
	}

	return h.LastExitCode
}

// RunSuccess executes a command and fails the test unless it exits 0.
func (h *Harness) RunSuccess(args ...string) string {
	h.T.Helper()

	exitCode := h.Run(args...)
	if exitCode != 0 {
		h.T.Fatalf("command failed with exit code %d: %v\nOutput: %s\nStderr: %s",
			exitCode, args, h.LastOutput, h.LastError)
	}

	return h.LastOutput
}

// RunFail executes a command and fails the test if it exits 0.
func (h *Harness) RunFail(args ...string) string {
	h.T.Helper()

	exitCode := h.Run(args...)
	if exitCode == 0 {
		h.T.Fatalf("command succeeded but expected failure: %v\nOutput: %s",
			args, h.LastOutput)
	}

	return h.LastOutput + h.LastError
}

// SeedFile writes a file into the deploy root.
func (h *Harness) SeedFile(name, content string) string {
	h.T.Helper()

	path := filepath.Join(h.DeployRoot, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.T.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.T.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// SeedConfigSet writes the tracked file set, the state a deploy root
// is in right after an install rendered it.
func (h *Harness) SeedConfigSet() {
	h.T.Helper()

	h.SeedFile("compose.yaml", "services:\n  facilitator: {}\n  proxy: {}\n")
	h.SeedFile("Caddyfile", ":443 {\n\treverse_proxy facilitator:8080\n}\n")
	h.SeedFile("config.toml", "[server]\nport = 8080\n")
	h.SeedFile(".env", "X402_PORT=8080\n")
}

// RootFileExists checks for a file under the deploy root.
func (h *Harness) RootFileExists(relativePath string) bool {
	_, err := os.Stat(filepath.Join(h.DeployRoot, relativePath))
	return err == nil
}

// ReadRootFile reads a file under the deploy root.
func (h *Harness) ReadRootFile(relativePath string) string {
	h.T.Helper()

	content, err := os.ReadFile(filepath.Join(h.DeployRoot, relativePath))
	if err != nil {
		h.T.Fatalf("failed to read file %s: %v", relativePath, err)
	}
	return string(content)
}

// OutputContains checks the last command's combined output.
func (h *Harness) OutputContains(s string) bool {
	return strings.Contains(h.LastOutput, s) || strings.Contains(h.LastError, s)
}

// AssertOutputContains asserts on the last command's combined output.
func (h *Harness) AssertOutputContains(s string) {
	h.T.Helper()

	if !h.OutputContains(s) {
		h.T.Errorf("expected output to contain %q, got:\n%s", s, h.LastOutput+h.LastError)
	}
}

// BackupStamp extracts the stamp from 'fctl backup' output.
func (h *Harness) BackupStamp(output string) string {
	h.T.Helper()

	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Created backup ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			return fields[2]
		}
	}
	h.T.Fatalf("no backup stamp in output:\n%s", output)
	return ""
}

// WaitForNextStamp blocks until a new backup would get a different
// stamp than the given one. Stamps have one-second resolution.
func (h *Harness) WaitForNextStamp(stamp string) {
	h.T.Helper()

	const layout = "20060102T150405Z"
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().UTC().Format(layout) == stamp {
		if time.Now().After(deadline) {
			h.T.Fatalf("stamp %s did not roll over", stamp)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
