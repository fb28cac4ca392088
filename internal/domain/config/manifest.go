// Package config holds the harness manifest (fctl.yaml) and the
// facilitator's operator-facing config files.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the harness manifest inside the deploy root.
const ManifestFileName = "fctl.yaml"

// Default locations and tuning.
const (
	DefaultDeployRoot  = "/srv/facilitator"
	DefaultStateDir    = "/var/lib/fctl"
	DefaultPort        = 8080
	DefaultNetwork     = "base-sepolia"
	DefaultRetain      = 10
	DefaultMinEngine   = "24.0.0"
	DefaultMinCompose  = "2.20.0"
	DefaultMinDiskMB   = 5120
	DefaultMinMemoryMB = 1024
)

// Default image references.
const (
	DefaultFacilitatorImage = "ghcr.io/x402/facilitator:1.4.2"
	DefaultProxyImage       = "caddy:2.8-alpine"
)

// Manifest is the harness configuration, loaded from fctl.yaml.
type Manifest struct {
	DeployRoot  string
	StateDir    string
	Images      Images
	Facilitator Facilitator
	Health      HealthConfig
	Backup      BackupConfig
	Fleet       FleetConfig
	Runtime     RuntimeConfig
	Resources   ResourceConfig
}

// Images are the container image references the deployment runs.
type Images struct {
	Facilitator string
	Proxy       string
}

// Refs returns the image references in deterministic order.
func (i Images) Refs() []string {
	return []string{i.Facilitator, i.Proxy}
}

// Facilitator holds the payment service settings the harness manages.
type Facilitator struct {
	Port    int
	Domain  string
	Network string
}

// HealthConfig tunes the post-deploy health probe.
type HealthConfig struct {
	URL      string
	Interval time.Duration
	Attempts int
	Timeout  time.Duration
	Backoff  float64
}

// BackupConfig tunes backup retention.
type BackupConfig struct {
	Retain int
}

// FleetConfig lists remote hosts for push-mode provisioning.
type FleetConfig struct {
	Hosts []Host
}

// Host is one remote deployment target.
type Host struct {
	Name         string
	Address      string
	User         string
	IdentityFile string
	ProxyJump    string
}

// RuntimeConfig holds minimum container runtime versions.
type RuntimeConfig struct {
	MinEngine  string
	MinCompose string
}

// ResourceConfig holds host resource floors checked before a run.
type ResourceConfig struct {
	MinDiskMB   int64
	MinMemoryMB int64
}

// manifestYAML is the YAML representation for unmarshaling.
type manifestYAML struct {
	DeployRoot string `yaml:"deploy_root,omitempty"`
	StateDir   string `yaml:"state_dir,omitempty"`
	Images     struct {
		Facilitator string `yaml:"facilitator,omitempty"`
		Proxy       string `yaml:"proxy,omitempty"`
	} `yaml:"images,omitempty"`
	Facilitator struct {
		Port    int    `yaml:"port,omitempty"`
		Domain  string `yaml:"domain,omitempty"`
		Network string `yaml:"network,omitempty"`
	} `yaml:"facilitator,omitempty"`
	Health struct {
		URL      string  `yaml:"url,omitempty"`
		Interval string  `yaml:"interval,omitempty"`
		Attempts int     `yaml:"attempts,omitempty"`
		Timeout  string  `yaml:"timeout,omitempty"`
		Backoff  float64 `yaml:"backoff,omitempty"`
	} `yaml:"health,omitempty"`
	Backup struct {
		Retain int `yaml:"retain,omitempty"`
	} `yaml:"backup,omitempty"`
	Fleet struct {
		Hosts []struct {
			Name         string `yaml:"name"`
			Address      string `yaml:"address"`
			User         string `yaml:"user,omitempty"`
			IdentityFile string `yaml:"identity_file,omitempty"`
			ProxyJump    string `yaml:"proxy_jump,omitempty"`
		} `yaml:"hosts,omitempty"`
	} `yaml:"fleet,omitempty"`
	Runtime struct {
		MinEngine  string `yaml:"min_engine,omitempty"`
		MinCompose string `yaml:"min_compose,omitempty"`
	} `yaml:"runtime,omitempty"`
	Resources struct {
		MinDiskMB   int64 `yaml:"min_disk_mb,omitempty"`
		MinMemoryMB int64 `yaml:"min_memory_mb,omitempty"`
	} `yaml:"resources,omitempty"`
}

// DefaultManifest returns a manifest with every field at its default.
func DefaultManifest() *Manifest {
	m := &Manifest{
		DeployRoot: DefaultDeployRoot,
		StateDir:   DefaultStateDir,
		Images: Images{
			Facilitator: DefaultFacilitatorImage,
			Proxy:       DefaultProxyImage,
		},
		Facilitator: Facilitator{
			Port:    DefaultPort,
			Network: DefaultNetwork,
		},
		Health: HealthConfig{
			Interval: 2 * time.Second,
			Attempts: 30,
			Timeout:  2 * time.Second,
			Backoff:  1.0,
		},
		Backup: BackupConfig{Retain: DefaultRetain},
		Runtime: RuntimeConfig{
			MinEngine:  DefaultMinEngine,
			MinCompose: DefaultMinCompose,
		},
		Resources: ResourceConfig{
			MinDiskMB:   DefaultMinDiskMB,
			MinMemoryMB: DefaultMinMemoryMB,
		},
	}
	m.normalize()
	return m
}

// ParseManifest parses a Manifest from YAML bytes, applying defaults
// for every omitted field.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw manifestYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	m := DefaultManifest()

	if raw.DeployRoot != "" {
		m.DeployRoot = raw.DeployRoot
	}
	if raw.StateDir != "" {
		m.StateDir = raw.StateDir
	}
	if raw.Images.Facilitator != "" {
		m.Images.Facilitator = raw.Images.Facilitator
	}
	if raw.Images.Proxy != "" {
		m.Images.Proxy = raw.Images.Proxy
	}
	if raw.Facilitator.Port != 0 {
		m.Facilitator.Port = raw.Facilitator.Port
	}
	if raw.Facilitator.Domain != "" {
		m.Facilitator.Domain = raw.Facilitator.Domain
	}
	if raw.Facilitator.Network != "" {
		m.Facilitator.Network = raw.Facilitator.Network
	}
	if raw.Health.URL != "" {
		m.Health.URL = raw.Health.URL
	}
	if raw.Health.Interval != "" {
		d, err := time.ParseDuration(raw.Health.Interval)
		if err != nil {
			return nil, NewManifestInvalidError("health.interval",
				fmt.Sprintf("invalid duration %q", raw.Health.Interval)).WithUnderlying(err)
		}
		m.Health.Interval = d
	}
	if raw.Health.Attempts != 0 {
		m.Health.Attempts = raw.Health.Attempts
	}
	if raw.Health.Timeout != "" {
		d, err := time.ParseDuration(raw.Health.Timeout)
		if err != nil {
			return nil, NewManifestInvalidError("health.timeout",
				fmt.Sprintf("invalid duration %q", raw.Health.Timeout)).WithUnderlying(err)
		}
		m.Health.Timeout = d
	}
	if raw.Health.Backoff != 0 {
		m.Health.Backoff = raw.Health.Backoff
	}
	if raw.Backup.Retain != 0 {
		m.Backup.Retain = raw.Backup.Retain
	}
	for _, h := range raw.Fleet.Hosts {
		m.Fleet.Hosts = append(m.Fleet.Hosts, Host{
			Name:         h.Name,
			Address:      h.Address,
			User:         h.User,
			IdentityFile: h.IdentityFile,
			ProxyJump:    h.ProxyJump,
		})
	}
	if raw.Runtime.MinEngine != "" {
		m.Runtime.MinEngine = raw.Runtime.MinEngine
	}
	if raw.Runtime.MinCompose != "" {
		m.Runtime.MinCompose = raw.Runtime.MinCompose
	}
	if raw.Resources.MinDiskMB != 0 {
		m.Resources.MinDiskMB = raw.Resources.MinDiskMB
	}
	if raw.Resources.MinMemoryMB != 0 {
		m.Resources.MinMemoryMB = raw.Resources.MinMemoryMB
	}

	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// normalize fills fields computed from other fields.
func (m *Manifest) normalize() {
	if m.Health.URL == "" {
		m.Health.URL = fmt.Sprintf("http://127.0.0.1:%d/health", m.Facilitator.Port)
	}
}

// EncodeManifest renders the manifest as YAML, suitable for seeding
// fctl.yaml.
func EncodeManifest(m *Manifest) ([]byte, error) {
	var raw manifestYAML
	raw.DeployRoot = m.DeployRoot
	raw.StateDir = m.StateDir
	raw.Images.Facilitator = m.Images.Facilitator
	raw.Images.Proxy = m.Images.Proxy
	raw.Facilitator.Port = m.Facilitator.Port
	raw.Facilitator.Domain = m.Facilitator.Domain
	raw.Facilitator.Network = m.Facilitator.Network
	raw.Health.URL = m.Health.URL
	raw.Health.Interval = m.Health.Interval.String()
	raw.Health.Attempts = m.Health.Attempts
	raw.Health.Timeout = m.Health.Timeout.String()
	raw.Health.Backoff = m.Health.Backoff
	raw.Backup.Retain = m.Backup.Retain
	for _, h := range m.Fleet.Hosts {
		raw.Fleet.Hosts = append(raw.Fleet.Hosts, struct {
			Name         string `yaml:"name"`
			Address      string `yaml:"address"`
			User         string `yaml:"user,omitempty"`
			IdentityFile string `yaml:"identity_file,omitempty"`
			ProxyJump    string `yaml:"proxy_jump,omitempty"`
		}{h.Name, h.Address, h.User, h.IdentityFile, h.ProxyJump})
	}
	raw.Runtime.MinEngine = m.Runtime.MinEngine
	raw.Runtime.MinCompose = m.Runtime.MinCompose
	raw.Resources.MinDiskMB = m.Resources.MinDiskMB
	raw.Resources.MinMemoryMB = m.Resources.MinMemoryMB
	return yaml.Marshal(raw)
}

// Validate checks manifest semantics.
func (m *Manifest) Validate() error {
	if !strings.HasPrefix(m.DeployRoot, "/") {
		return NewManifestInvalidError("deploy_root",
			fmt.Sprintf("deploy_root must be an absolute path, got %q", m.DeployRoot))
	}
	if !strings.HasPrefix(m.StateDir, "/") {
		return NewManifestInvalidError("state_dir",
			fmt.Sprintf("state_dir must be an absolute path, got %q", m.StateDir))
	}
	if m.Images.Facilitator == "" {
		return NewManifestInvalidError("images.facilitator", "facilitator image must not be empty")
	}
	if m.Images.Proxy == "" {
		return NewManifestInvalidError("images.proxy", "proxy image must not be empty")
	}
	if m.Facilitator.Port < 1 || m.Facilitator.Port > 65535 {
		return NewManifestInvalidError("facilitator.port",
			fmt.Sprintf("port must be between 1 and 65535, got %d", m.Facilitator.Port)).
			WithSuggestion("Pick an unprivileged port such as 8080.")
	}
	if _, err := url.ParseRequestURI(m.Health.URL); err != nil {
		return NewManifestInvalidError("health.url",
			fmt.Sprintf("invalid health URL %q", m.Health.URL)).WithUnderlying(err)
	}
	if m.Health.Interval <= 0 {
		return NewManifestInvalidError("health.interval", "interval must be positive")
	}
	if m.Health.Attempts < 1 {
		return NewManifestInvalidError("health.attempts", "attempts must be at least 1")
	}
	if m.Health.Timeout <= 0 {
		return NewManifestInvalidError("health.timeout", "timeout must be positive")
	}
	if m.Health.Backoff < 1.0 {
		return NewManifestInvalidError("health.backoff",
			fmt.Sprintf("backoff factor must be at least 1.0, got %g", m.Health.Backoff)).
			WithSuggestion("Use 1.0 for a fixed interval or a larger factor for multiplicative backoff.")
	}
	if m.Backup.Retain < 1 {
		return NewManifestInvalidError("backup.retain", "retention must keep at least 1 backup set")
	}
	if !semver.IsValid("v" + m.Runtime.MinEngine) {
		return NewManifestInvalidError("runtime.min_engine",
			fmt.Sprintf("invalid version %q", m.Runtime.MinEngine))
	}
	if !semver.IsValid("v" + m.Runtime.MinCompose) {
		return NewManifestInvalidError("runtime.min_compose",
			fmt.Sprintf("invalid version %q", m.Runtime.MinCompose))
	}
	for i, h := range m.Fleet.Hosts {
		field := fmt.Sprintf("fleet.hosts[%d]", i)
		if h.Name == "" {
			return NewManifestInvalidError(field, "host name must not be empty")
		}
		if h.Address == "" {
			return NewManifestInvalidError(field, fmt.Sprintf("host %q has no address", h.Name))
		}
	}
	return nil
}
