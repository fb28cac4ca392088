package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFacilitatorConfig(t *testing.T) {
	m := DefaultManifest()
	m.Facilitator.Port = 9090
	m.Facilitator.Network = "base"

	cfg := DefaultFacilitatorConfig(m)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "base", cfg.Chain.Network)
	assert.Equal(t, SignerKeyVar, cfg.Signer.KeyEnv)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestFacilitatorConfigRoundTrip(t *testing.T) {
	cfg := DefaultFacilitatorConfig(DefaultManifest())
	cfg.Chain.RPCURL = "https://sepolia.base.org"

	data, err := EncodeFacilitatorConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[server]")
	assert.Contains(t, string(data), "rpc_url = 'https://sepolia.base.org'")

	parsed, err := ParseFacilitatorConfig(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestParseFacilitatorConfigInvalid(t *testing.T) {
	_, err := ParseFacilitatorConfig([]byte("[server\nport = nope"))
	require.Error(t, err)
}
