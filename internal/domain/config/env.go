package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"gopkg.in/ini.v1"
)

// EnvFileName is the runtime environment file inside the deploy root.
const EnvFileName = ".env"

// Environment variable names the facilitator container reads.
const (
	PortVar      = "X402_PORT"
	NetworkVar   = "X402_NETWORK"
	SignerKeyVar = "X402_SIGNER_KEY"
)

const signerKeyBytes = 32

func init() {
	// Compose env files do not tolerate spaces around '='.
	ini.PrettyFormat = false
}

// NewSignerKey generates a random settlement signing key, hex encoded.
func NewSignerKey() (string, error) {
	buf := make([]byte, signerKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate signer key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateEnv renders the runtime environment file. The signer key is
// generated fresh; callers that already hold one pass it through
// GenerateEnvWithKey instead.
func GenerateEnv(m *Manifest) ([]byte, error) {
	key, err := NewSignerKey()
	if err != nil {
		return nil, err
	}
	return GenerateEnvWithKey(m, key)
}

// GenerateEnvWithKey renders the runtime environment file with the
// given signer key.
func GenerateEnvWithKey(m *Manifest, signerKey string) ([]byte, error) {
	cfg := ini.Empty()
	section := cfg.Section("")
	if _, err := section.NewKey(PortVar, strconv.Itoa(m.Facilitator.Port)); err != nil {
		return nil, err
	}
	if _, err := section.NewKey(NetworkVar, m.Facilitator.Network); err != nil {
		return nil, err
	}
	if _, err := section.NewKey(SignerKeyVar, signerKey); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseEnv parses an environment file into a key/value map.
func ParseEnv(data []byte) (map[string]string, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, err
	}
	return cfg.Section("").KeysHash(), nil
}

// ValidateEnv checks that an environment file carries the variables the
// facilitator needs and that the signer key looks like key material.
func ValidateEnv(data []byte) error {
	vars, err := ParseEnv(data)
	if err != nil {
		return err
	}
	for _, name := range []string{PortVar, NetworkVar, SignerKeyVar} {
		if vars[name] == "" {
			return fmt.Errorf("%s is missing or empty", name)
		}
	}
	key := vars[SignerKeyVar]
	if len(key) != signerKeyBytes*2 {
		return fmt.Errorf("%s must be %d hex characters, got %d", SignerKeyVar, signerKeyBytes*2, len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("%s is not valid hex: %w", SignerKeyVar, err)
	}
	return nil
}
