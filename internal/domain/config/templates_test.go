package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBundle(t *testing.T) {
	m := DefaultManifest()
	m.Facilitator.Domain = "pay.example.com"
	m.Facilitator.Port = 9090

	bundle, err := RenderBundle(m)
	require.NoError(t, err)
	require.Len(t, bundle, 2)

	assert.Equal(t, "compose.yaml", bundle[0].Name)
	assert.Equal(t, "Caddyfile", bundle[1].Name)

	compose := string(bundle[0].Content)
	assert.Contains(t, compose, "facilitator:")
	assert.Contains(t, compose, "proxy:")
	assert.Contains(t, compose, "image: "+DefaultFacilitatorImage)
	assert.Contains(t, compose, "image: "+DefaultProxyImage)
	assert.Contains(t, compose, `"127.0.0.1:9090:9090"`)
	assert.Contains(t, compose, "./Caddyfile:/etc/caddy/Caddyfile:ro")

	caddy := string(bundle[1].Content)
	assert.Contains(t, caddy, "pay.example.com {")
	assert.Contains(t, caddy, "reverse_proxy facilitator:9090")
}

func TestRenderBundleDefaultsDomain(t *testing.T) {
	bundle, err := RenderBundle(DefaultManifest())
	require.NoError(t, err)

	caddy := string(bundle[1].Content)
	assert.Contains(t, caddy, "localhost {")
}

func TestRenderBundleIsDeterministic(t *testing.T) {
	m := DefaultManifest()

	a, err := RenderBundle(m)
	require.NoError(t, err)
	b, err := RenderBundle(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
