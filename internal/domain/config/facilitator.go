package config

import (
	"github.com/pelletier/go-toml/v2"
)

// FacilitatorFileName is the facilitator service config inside the
// deploy root.
const FacilitatorFileName = "config.toml"

// FacilitatorConfig is the typed model of config.toml. The facilitator
// container reads this file directly; the harness generates and
// validates it.
type FacilitatorConfig struct {
	Server    ServerSection    `toml:"server"`
	Chain     ChainSection     `toml:"chain"`
	Signer    SignerSection    `toml:"signer"`
	Telemetry TelemetrySection `toml:"telemetry"`
}

// ServerSection holds the listen settings.
type ServerSection struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ChainSection holds the settlement network settings.
type ChainSection struct {
	Network string `toml:"network"`
	RPCURL  string `toml:"rpc_url,omitempty"`
}

// SignerSection tells the facilitator where its signing key lives.
type SignerSection struct {
	KeyEnv string `toml:"key_env"`
}

// TelemetrySection toggles facilitator-side telemetry.
type TelemetrySection struct {
	Enabled bool `toml:"enabled"`
}

// DefaultFacilitatorConfig derives the facilitator config from the
// manifest.
func DefaultFacilitatorConfig(m *Manifest) FacilitatorConfig {
	return FacilitatorConfig{
		Server: ServerSection{
			Host: "0.0.0.0",
			Port: m.Facilitator.Port,
		},
		Chain: ChainSection{
			Network: m.Facilitator.Network,
		},
		Signer: SignerSection{
			KeyEnv: SignerKeyVar,
		},
		Telemetry: TelemetrySection{Enabled: false},
	}
}

// EncodeFacilitatorConfig renders the config as TOML.
func EncodeFacilitatorConfig(cfg FacilitatorConfig) ([]byte, error) {
	return toml.Marshal(cfg)
}

// ParseFacilitatorConfig parses config.toml bytes. Doctor uses this to
// verify the file on disk still parses after manual edits.
func ParseFacilitatorConfig(data []byte) (FacilitatorConfig, error) {
	var cfg FacilitatorConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return FacilitatorConfig{}, err
	}
	return cfg, nil
}
