package fleet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/ports"
)

// DefaultDialTimeout bounds the TCP and SSH handshake per host.
const DefaultDialTimeout = 30 * time.Second

// SSHDialer connects to hosts over SSH using key authentication.
type SSHDialer struct {
	logger        ports.Logger
	timeout       time.Duration
	defaultUser   string
	identityFiles []string
}

// NewSSHDialer creates a dialer with the usual key locations.
func NewSSHDialer(logger ports.Logger) *SSHDialer {
	home, _ := os.UserHomeDir()
	return &SSHDialer{
		logger:      logger,
		timeout:     DefaultDialTimeout,
		defaultUser: "root",
		identityFiles: []string{
			filepath.Join(home, ".ssh", "id_ed25519"),
			filepath.Join(home, ".ssh", "id_rsa"),
		},
	}
}

// WithTimeout returns a copy with a custom dial timeout.
func (d *SSHDialer) WithTimeout(timeout time.Duration) *SSHDialer {
	c := *d
	c.timeout = timeout
	return &c
}

// Dial connects to the host, optionally through its proxy jump.
func (d *SSHDialer) Dial(ctx context.Context, host config.Host) (Connection, error) {
	auth, err := d.buildAuth(host)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", host.Name, err)
	}

	user := host.User
	if user == "" {
		user = d.defaultUser
	}

	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // fleet hosts come from the operator's own manifest
		Timeout:         d.timeout,
	}

	addr := hostAddr(host.Address)

	var client *ssh.Client
	if host.ProxyJump != "" {
		client, err = d.dialViaProxy(ctx, addr, cfg, hostAddr(host.ProxyJump))
	} else {
		client, err = d.dial(ctx, addr, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", host.Name, err)
	}

	d.logger.Debug(ctx, "connected", ports.F("host", host.Name), ports.F("addr", addr))
	return &sshConnection{client: client}, nil
}

func (d *SSHDialer) buildAuth(host config.Host) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if host.IdentityFile != "" {
		signer, err := loadPrivateKey(host.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load identity file %s: %w", host.IdentityFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	for _, path := range d.identityFiles {
		signer, err := loadPrivateKey(path)
		if err == nil {
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}

	if len(methods) == 0 {
		return nil, errors.New("no usable SSH keys found")
	}
	return methods, nil
}

func (d *SSHDialer) dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (d *SSHDialer) dialViaProxy(ctx context.Context, addr string, cfg *ssh.ClientConfig, proxy string) (*ssh.Client, error) {
	proxyClient, err := d.dial(ctx, proxy, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to proxy %s: %w", proxy, err)
	}

	netConn, err := proxyClient.Dial("tcp", addr)
	if err != nil {
		_ = proxyClient.Close()
		return nil, fmt.Errorf("failed to dial %s through proxy: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		_ = netConn.Close()
		_ = proxyClient.Close()
		return nil, fmt.Errorf("SSH handshake with %s via proxy failed: %w", addr, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// hostAddr appends the default SSH port when the address has none.
func hostAddr(addr string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return addr + ":22"
}

func loadPrivateKey(path string) (ssh.Signer, error) {
	key, err := os.ReadFile(ports.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(key)
}

// sshConnection implements Connection over an established SSH client.
type sshConnection struct {
	client *ssh.Client
}

func (c *sshConnection) Run(ctx context.Context, cmd string) (*Result, error) {
	return c.run(ctx, cmd, nil)
}

func (c *sshConnection) run(ctx context.Context, cmd string, stdin *bytes.Reader) (*Result, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		return nil, ctx.Err()
	case err := <-done:
		result := &Result{
			Stdout: stdout.Bytes(),
			Stderr: stderr.Bytes(),
		}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitStatus()
			} else {
				return nil, err
			}
		}
		return result, nil
	}
}

func (c *sshConnection) Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error {
	cmd := fmt.Sprintf("cat > %s && chmod %o %s", remotePath, mode.Perm(), remotePath)
	result, err := c.run(ctx, cmd, bytes.NewReader(content))
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("upload to %s failed: %s", remotePath, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

func (c *sshConnection) Close() error {
	return c.client.Close()
}
