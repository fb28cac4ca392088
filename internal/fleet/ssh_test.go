package fleet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
)

// writeTestKey writes a fresh ed25519 private key in OpenSSH format and
// returns its path.
func writeTestKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestHostAddrAppendsDefaultPort(t *testing.T) {
	assert.Equal(t, "10.0.0.5:22", hostAddr("10.0.0.5"))
	assert.Equal(t, "pay-1.example.com:22", hostAddr("pay-1.example.com"))
}

func TestHostAddrKeepsExplicitPort(t *testing.T) {
	assert.Equal(t, "10.0.0.5:2222", hostAddr("10.0.0.5:2222"))
}

func TestLoadPrivateKey(t *testing.T) {
	path := writeTestKey(t)

	signer, err := loadPrivateKey(path)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519", signer.PublicKey().Type())
}

func TestLoadPrivateKeyMissingFile(t *testing.T) {
	_, err := loadPrivateKey(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestLoadPrivateKeyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-key")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o600))

	_, err := loadPrivateKey(path)
	assert.Error(t, err)
}

func TestBuildAuthRequiresAtLeastOneKey(t *testing.T) {
	d := &SSHDialer{logger: &testLogger{}}

	_, err := d.buildAuth(config.Host{Name: "pay-1", Address: "10.0.0.5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable SSH keys")
}

func TestBuildAuthFailsOnBrokenExplicitIdentity(t *testing.T) {
	d := &SSHDialer{logger: &testLogger{}}
	host := config.Host{
		Name:         "pay-1",
		Address:      "10.0.0.5",
		IdentityFile: filepath.Join(t.TempDir(), "absent"),
	}

	_, err := d.buildAuth(host)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load identity file")
}

func TestBuildAuthUsesExplicitIdentity(t *testing.T) {
	d := &SSHDialer{logger: &testLogger{}}
	host := config.Host{
		Name:         "pay-1",
		Address:      "10.0.0.5",
		IdentityFile: writeTestKey(t),
	}

	methods, err := d.buildAuth(host)
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestBuildAuthSkipsUnreadableDefaults(t *testing.T) {
	d := &SSHDialer{
		logger: &testLogger{},
		identityFiles: []string{
			filepath.Join(t.TempDir(), "absent"),
			writeTestKey(t),
		},
	}

	methods, err := d.buildAuth(config.Host{Name: "pay-1", Address: "10.0.0.5"})
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestWithTimeoutReturnsCopy(t *testing.T) {
	d := NewSSHDialer(&testLogger{})
	custom := d.WithTimeout(5 * time.Second)

	assert.Equal(t, DefaultDialTimeout, d.timeout)
	assert.Equal(t, 5*time.Second, custom.timeout)
}
