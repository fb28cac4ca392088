// Package runtime drives the container engine and compose stack for
// the facilitator deployment by shelling out through the
// CommandRunner port.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// ComposeFileName is the compose file inside the deploy root.
const ComposeFileName = "compose.yaml"

// Service is one compose service with its observed state.
type Service struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Health string `json:"health,omitempty"`
}

// Running reports whether the service is in the running state.
func (s Service) Running() bool {
	return s.State == "running"
}

// Compose wraps the docker CLI against one deploy root.
type Compose struct {
	runner ports.CommandRunner
	logger ports.Logger
	root   string
}

// NewCompose creates a compose wrapper for the deploy root.
func NewCompose(runner ports.CommandRunner, logger ports.Logger, root string) *Compose {
	return &Compose{runner: runner, logger: logger, root: root}
}

func (c *Compose) composeFile() string {
	return filepath.Join(c.root, ComposeFileName)
}

func (c *Compose) composeArgs(sub ...string) []string {
	args := []string{"compose", "-f", c.composeFile()}
	return append(args, sub...)
}

func (c *Compose) run(ctx context.Context, args ...string) (ports.CommandResult, error) {
	result, err := c.runner.Run(ctx, "docker", args...)
	if err != nil {
		return result, fmt.Errorf("docker %s: %w", strings.Join(args, " "), err)
	}
	if !result.Success() {
		return result, fmt.Errorf("docker %s exited %d: %s",
			strings.Join(args, " "), result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result, nil
}

// EngineVersion returns the docker server version.
func (c *Compose) EngineVersion(ctx context.Context) (string, error) {
	result, err := c.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// ComposeVersion returns the compose plugin version.
func (c *Compose) ComposeVersion(ctx context.Context) (string, error) {
	result, err := c.run(ctx, "compose", "version", "--short")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Pull pulls every image the compose file references.
func (c *Compose) Pull(ctx context.Context) error {
	c.logger.Info(ctx, "pulling images", ports.F("compose_file", c.composeFile()))
	_, err := c.run(ctx, c.composeArgs("pull")...)
	return err
}

// Up starts the stack detached.
func (c *Compose) Up(ctx context.Context) error {
	c.logger.Info(ctx, "starting services", ports.F("compose_file", c.composeFile()))
	_, err := c.run(ctx, c.composeArgs("up", "-d")...)
	return err
}

// Restart restarts the named services, or the whole stack when none
// are given.
func (c *Compose) Restart(ctx context.Context, services ...string) error {
	args := c.composeArgs(append([]string{"restart"}, services...)...)
	_, err := c.run(ctx, args...)
	return err
}

// Stop stops the stack without removing containers.
func (c *Compose) Stop(ctx context.Context) error {
	_, err := c.run(ctx, c.composeArgs("stop")...)
	return err
}

// Down removes the stack's containers and networks. With removeVolumes
// the named volumes go too.
func (c *Compose) Down(ctx context.Context, removeVolumes bool) error {
	sub := []string{"down"}
	if removeVolumes {
		sub = append(sub, "--volumes")
	}
	_, err := c.run(ctx, c.composeArgs(sub...)...)
	return err
}

// Logs streams service logs to the writer. An empty service streams
// the whole stack.
func (c *Compose) Logs(ctx context.Context, out io.Writer, service string, follow bool, tail int) error {
	sub := []string{"logs", "--tail", strconv.Itoa(tail)}
	if follow {
		sub = append(sub, "--follow")
	}
	if service != "" {
		sub = append(sub, service)
	}
	return c.runner.Stream(ctx, out, out, "docker", c.composeArgs(sub...)...)
}

// composePSRecord is one line of `docker compose ps --format json`.
type composePSRecord struct {
	Service string `json:"Service"`
	State   string `json:"State"`
	Health  string `json:"Health"`
}

// ParseServices parses `docker compose ps --format json` output, which
// is one JSON object per line.
func ParseServices(out string) ([]Service, error) {
	var services []Service
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec composePSRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse compose ps output: %w", err)
		}
		services = append(services, Service{
			Name:   rec.Service,
			State:  rec.State,
			Health: rec.Health,
		})
	}
	return services, nil
}

// Services lists the stack's services with state and health.
func (c *Compose) Services(ctx context.Context) ([]Service, error) {
	result, err := c.run(ctx, c.composeArgs("ps", "--all", "--format", "json")...)
	if err != nil {
		return nil, err
	}
	return ParseServices(result.Stdout)
}

// AllRunning reports whether every service of the stack is running.
// An empty stack is not running.
func (c *Compose) AllRunning(ctx context.Context) (bool, error) {
	services, err := c.Services(ctx)
	if err != nil {
		return false, err
	}
	if len(services) == 0 {
		return false, nil
	}
	for _, svc := range services {
		if !svc.Running() {
			return false, nil
		}
	}
	return true, nil
}

// ImageExists reports whether the image ref resolves locally.
func (c *Compose) ImageExists(ctx context.Context, ref string) (bool, error) {
	result, err := c.runner.Run(ctx, "docker", "image", "inspect", ref)
	if err != nil {
		return false, fmt.Errorf("docker image inspect %s: %w", ref, err)
	}
	return result.Success(), nil
}
