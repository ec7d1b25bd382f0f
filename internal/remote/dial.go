package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Config configures an SFTP connection.
type Config struct {
	// Target is user@host.
	Target string
	Port   int
	// BatchMode disables every interactive prompt.
	BatchMode bool
	Timeout   time.Duration
	// KnownHostsPath defaults to ~/.ssh/known_hosts.
	KnownHostsPath string
	// KeyDir holds the default private keys; defaults to ~/.ssh.
	KeyDir string
	// Prompt asks a yes/no question; defaults to the terminal.
	Prompt func(question string) (bool, error)
}

// DefaultConfig returns the standard SSH port and connect timeout.
func DefaultConfig() Config {
	return Config{
		Port:    22,
		Timeout: 15 * time.Second,
	}
}

func (c Config) withDefaults() (Config, error) {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Prompt == nil {
		c.Prompt = promptYesNo
	}
	if c.KnownHostsPath == "" || c.KeyDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return c, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if c.KeyDir == "" {
			c.KeyDir = filepath.Join(home, ".ssh")
		}
		if c.KnownHostsPath == "" {
			c.KnownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
		}
	}
	return c, nil
}

var dialClient = dialSFTP

var dialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

var sshNewClientConn = func(conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	return ssh.NewClientConn(conn, addr, config)
}

// Dial connects to cfg.Target and opens an SFTP session.
func Dial(ctx context.Context, cfg Config) (*Source, error) {
	client, closer, err := dialClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Source{target: cfg.Target, client: client, closer: closer}, nil
}

func dialSFTP(ctx context.Context, cfg Config) (sftpClient, io.Closer, error) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, nil, fmt.Errorf("ssh port must be between 1 and 65535")
	}

	user, host, err := parseSSHTarget(cfg.Target)
	if err != nil {
		return nil, nil, err
	}

	cfg, err = cfg.withDefaults()
	if err != nil {
		return nil, nil, err
	}

	verifier := &hostVerifier{
		path:   cfg.KnownHostsPath,
		host:   host,
		port:   cfg.Port,
		batch:  cfg.BatchMode,
		prompt: cfg.Prompt,
	}
	hostCB, err := verifier.callback()
	if err != nil {
		return nil, nil, err
	}

	auth, err := buildAuthMethods(user, host, cfg.KeyDir, cfg.BatchMode)
	if err != nil {
		return nil, nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostCB,
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", cfg.Port))
	sshClient, err := connectSSH(dialCtx, addr, sshConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, fmt.Errorf("cannot start SFTP subsystem: %w", err)
	}

	return client, &sessionCloser{closers: []io.Closer{client, sshClient}}, nil
}

func connectSSH(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := dialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// Cancellation must interrupt the handshake too.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	c, chans, reqs, err := sshNewClientConn(conn, addr, config)
	stop()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// sessionCloser closes each layer of a session, innermost first, and
// reports every failure.
type sessionCloser struct {
	closers []io.Closer
}

func (c *sessionCloser) Close() error {
	var result *multierror.Error
	for _, cl := range c.closers {
		if cl == nil {
			continue
		}
		if err := cl.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
