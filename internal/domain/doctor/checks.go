package doctor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/ports"
)

// EngineInfo is what the checks need from the container runtime.
type EngineInfo interface {
	EngineVersion(ctx context.Context) (string, error)
	ComposeVersion(ctx context.Context) (string, error)
	AllRunning(ctx context.Context) (bool, error)
}

// HealthChecker probes the facilitator's health endpoint once.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// check is a named diagnostic backed by a function.
type check struct {
	name string
	run  func(ctx context.Context) Result
}

func (c *check) Name() string                   { return c.name }
func (c *check) Run(ctx context.Context) Result { return c.run(ctx) }

func pass(name, detail string) Result {
	return Result{Name: name, Severity: SeverityPass, Detail: detail}
}

func warn(name, detail, suggestion string) Result {
	return Result{Name: name, Severity: SeverityWarn, Detail: detail, Suggestion: suggestion}
}

func fail(name, detail, suggestion string) Result {
	return Result{Name: name, Severity: SeverityFail, Detail: detail, Suggestion: suggestion}
}

// DefaultChecks assembles the standard diagnostic set for a host.
func DefaultChecks(fs ports.FileSystem, runner ports.CommandRunner, m *config.Manifest, engine EngineInfo, health HealthChecker, euid func() int) []Check {
	deps := reconcile.DefaultDependencies()
	return []Check{
		NewPrivilegesCheck(euid),
		NewDeployRootCheck(fs, m.DeployRoot),
		NewDiskSpaceCheck(runner, m.DeployRoot, m.Resources.MinDiskMB),
		NewMemoryCheck(fs, m.Resources.MinMemoryMB),
		NewEngineCheck(engine, m.Runtime.MinEngine),
		NewComposeCheck(engine, m.Runtime.MinCompose),
		NewTrackedFilesCheck(fs, m.DeployRoot, deps),
		NewFacilitatorConfigCheck(fs, m.DeployRoot),
		NewEnvFileCheck(fs, m.DeployRoot),
		NewServicesCheck(engine),
		NewHealthEndpointCheck(health, m.Health.URL),
	}
}

// NewPrivilegesCheck reports whether fctl has root privileges. Doctor
// itself runs fine unprivileged, but some probes see less.
func NewPrivilegesCheck(euid func() int) Check {
	return &check{name: "privileges", run: func(_ context.Context) Result {
		if euid() != 0 {
			return warn("privileges", "running without root privileges",
				"Some checks may be incomplete. Re-run with sudo for full coverage.")
		}
		return pass("privileges", "running as root")
	}}
}

// NewDeployRootCheck verifies the deploy root exists.
func NewDeployRootCheck(fs ports.FileSystem, root string) Check {
	return &check{name: "deploy-root", run: func(_ context.Context) Result {
		if !fs.Exists(root) {
			return fail("deploy-root", fmt.Sprintf("%s does not exist", root),
				"Run 'fctl install' to provision this host.")
		}
		if !fs.IsDir(root) {
			return fail("deploy-root", fmt.Sprintf("%s exists but is not a directory", root),
				"Move the file aside and re-run 'fctl install'.")
		}
		return pass("deploy-root", root)
	}}
}

// NewDiskSpaceCheck verifies free disk space against the manifest floor.
func NewDiskSpaceCheck(runner ports.CommandRunner, path string, minMB int64) Check {
	return &check{name: "disk-space", run: func(ctx context.Context) Result {
		freeMB, ok := install.FreeDiskMB(ctx, runner, path)
		if !ok {
			return warn("disk-space", "cannot determine free disk space", "")
		}
		if freeMB < minMB {
			return fail("disk-space", fmt.Sprintf("%d MB free, %d MB required", freeMB, minMB),
				"Free disk space or deploy to a larger volume.")
		}
		return pass("disk-space", fmt.Sprintf("%d MB free", freeMB))
	}}
}

// NewMemoryCheck verifies total memory against the manifest floor.
func NewMemoryCheck(fs ports.FileSystem, minMB int64) Check {
	return &check{name: "memory", run: func(_ context.Context) Result {
		totalMB, ok := install.MemTotalMB(fs)
		if !ok {
			return warn("memory", "cannot determine total memory", "")
		}
		if totalMB < minMB {
			return fail("memory", fmt.Sprintf("%d MB total, %d MB required", totalMB, minMB),
				"The facilitator and its proxy need more memory to run reliably.")
		}
		return pass("memory", fmt.Sprintf("%d MB total", totalMB))
	}}
}

// NewEngineCheck verifies the container engine responds and meets the
// version floor.
func NewEngineCheck(engine EngineInfo, minVersion string) Check {
	return &check{name: "engine", run: func(ctx context.Context) Result {
		version, err := engine.EngineVersion(ctx)
		if err != nil {
			return fail("engine", "container engine is not responding",
				"Is the engine running? Try 'systemctl start docker'.")
		}
		if !install.VersionAtLeast(version, minVersion) {
			return fail("engine", fmt.Sprintf("engine %s is older than required %s", version, minVersion),
				"Upgrade the engine or lower runtime.min_engine in fctl.yaml.")
		}
		return pass("engine", version)
	}}
}

// NewComposeCheck verifies the compose plugin responds and meets the
// version floor.
func NewComposeCheck(engine EngineInfo, minVersion string) Check {
	return &check{name: "compose", run: func(ctx context.Context) Result {
		version, err := engine.ComposeVersion(ctx)
		if err != nil {
			return fail("compose", "compose plugin is not responding",
				"Install the compose plugin (docker-compose-plugin).")
		}
		if !install.VersionAtLeast(version, minVersion) {
			return fail("compose", fmt.Sprintf("compose %s is older than required %s", version, minVersion),
				"Upgrade the compose plugin or lower runtime.min_compose in fctl.yaml.")
		}
		return pass("compose", version)
	}}
}

// NewTrackedFilesCheck verifies every reload-tracked file exists in the
// deploy root.
func NewTrackedFilesCheck(fs ports.FileSystem, root string, deps reconcile.DependencyTable) Check {
	return &check{name: "config-files", run: func(_ context.Context) Result {
		var missing []string
		for _, name := range deps.TrackedFiles() {
			if !fs.Exists(filepath.Join(root, name)) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fail("config-files", "missing: "+strings.Join(missing, ", "),
				"Run 'fctl deploy' to render the missing files.")
		}
		return pass("config-files", "all tracked files present")
	}}
}

// NewFacilitatorConfigCheck verifies config.toml still parses.
func NewFacilitatorConfigCheck(fs ports.FileSystem, root string) Check {
	return &check{name: "facilitator-config", run: func(_ context.Context) Result {
		path := filepath.Join(root, config.FacilitatorFileName)
		data, err := fs.ReadFile(path)
		if err != nil {
			return fail("facilitator-config", fmt.Sprintf("%s is unreadable", path),
				"Run 'fctl install' or 'fctl deploy' to materialize it.")
		}
		if _, err := config.ParseFacilitatorConfig(data); err != nil {
			return fail("facilitator-config", fmt.Sprintf("does not parse: %v", err),
				"Fix the TOML syntax with 'fctl edit config'.")
		}
		return pass("facilitator-config", "parses cleanly")
	}}
}

// NewEnvFileCheck verifies the runtime env file parses and carries the
// variables the facilitator needs.
func NewEnvFileCheck(fs ports.FileSystem, root string) Check {
	return &check{name: "env-file", run: func(_ context.Context) Result {
		path := filepath.Join(root, config.EnvFileName)
		data, err := fs.ReadFile(path)
		if err != nil {
			return fail("env-file", fmt.Sprintf("%s is unreadable", path),
				"Run 'fctl install' or 'fctl deploy' to materialize it.")
		}
		if err := config.ValidateEnv(data); err != nil {
			return fail("env-file", err.Error(),
				"Fix the variable with 'fctl edit env', or remove the file and re-run 'fctl deploy'.")
		}
		return pass("env-file", "all required variables present")
	}}
}

// NewServicesCheck verifies both compose services are running.
func NewServicesCheck(engine EngineInfo) Check {
	return &check{name: "services", run: func(ctx context.Context) Result {
		running, err := engine.AllRunning(ctx)
		if err != nil {
			return fail("services", fmt.Sprintf("cannot list services: %v", err),
				"Is the engine running? Try 'systemctl start docker'.")
		}
		if !running {
			return fail("services", "one or more services are not running",
				"Check 'fctl logs' and re-run 'fctl deploy'.")
		}
		return pass("services", "facilitator and proxy are running")
	}}
}

// NewHealthEndpointCheck probes the facilitator's health endpoint once.
func NewHealthEndpointCheck(health HealthChecker, url string) Check {
	return &check{name: "health-endpoint", run: func(ctx context.Context) Result {
		if err := health.Check(ctx); err != nil {
			return fail("health-endpoint", fmt.Sprintf("%s is not answering: %v", url, err),
				"Check 'fctl logs facilitator' for startup errors.")
		}
		return pass("health-endpoint", url)
	}}
}
