package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

var defaultPrivateKeyFiles = []string{
	"id_ed25519",
	"id_ecdsa",
	"id_rsa",
}

// ParseTarget splits user@host.
func ParseTarget(target string) (user, host string, err error) {
	return parseSSHTarget(target)
}

func parseSSHTarget(target string) (string, string, error) {
	if strings.TrimSpace(target) == "" {
		return "", "", fmt.Errorf("remote target is required")
	}

	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return "", "", fmt.Errorf("invalid remote target %q: expected user@host", target)
	}

	return user, host, nil
}

// hostVerifier checks server keys against a known_hosts file and, outside
// batch mode, asks before trusting a new or changed key.
type hostVerifier struct {
	path   string
	host   string
	port   int
	batch  bool
	prompt func(string) (bool, error)
}

func (v *hostVerifier) callback() (ssh.HostKeyCallback, error) {
	if err := ensureFile(v.path); err != nil {
		return nil, err
	}
	known, err := knownhosts.New(v.path)
	if err != nil {
		return nil, fmt.Errorf("cannot load known_hosts: %w", err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := known(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			return fmt.Errorf("host key verification failed: %w", err)
		}
		if len(keyErr.Want) == 0 {
			return v.trustNew(key)
		}
		return v.replaceChanged(key, keyErr.Want)
	}, nil
}

func (v *hostVerifier) trustNew(key ssh.PublicKey) error {
	address := knownHostAddress(v.host, v.port)
	presented := ssh.FingerprintSHA256(key)

	if v.batch {
		return fmt.Errorf("unknown host key for %s (%s); run ssh once to trust it or disable --ssh-batch", address, presented)
	}
	ok, err := v.prompt(fmt.Sprintf(
		"The authenticity of host '%s' can't be established.\n%s key fingerprint is %s.\nTrust this host and continue connecting (yes/no)? ",
		address, key.Type(), presented,
	))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key for %s was not trusted", address)
	}
	return addKnownHost(v.path, v.host, v.port, key)
}

func (v *hostVerifier) replaceChanged(key ssh.PublicKey, want []knownhosts.KnownKey) error {
	address := knownHostAddress(v.host, v.port)
	presented := ssh.FingerprintSHA256(key)

	expected := make([]string, 0, len(want))
	for _, w := range want {
		expected = append(expected, ssh.FingerprintSHA256(w.Key))
	}

	if v.batch {
		return fmt.Errorf("host key mismatch for %s: expected %s, presented %s",
			address, strings.Join(expected, ", "), presented)
	}
	ok, err := v.prompt(fmt.Sprintf(
		"WARNING: HOST KEY CHANGED for '%s'.\nExpected: %s\nPresented: %s\nReplace stored key and continue (yes/no)? ",
		address, strings.Join(expected, ", "), presented,
	))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key mismatch for %s", address)
	}
	return replaceKnownHost(v.path, v.host, v.port, key)
}

func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return fmt.Errorf("cannot create known_hosts: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access known_hosts: %w", err)
	}
	return nil
}

func promptYesNo(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("cannot prompt for host key trust: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("host key prompt failed: %w", err)
	}

	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes", nil
}

func buildAuthMethods(user, host, keyDir string, batchMode bool) ([]ssh.AuthMethod, error) {
	methods := make([]ssh.AuthMethod, 0, 4)

	if m := agentAuthMethod(); m != nil {
		methods = append(methods, m)
	}

	if signers := loadKeySigners(keyDir); len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if !batchMode {
		prompter := &passwordPrompter{user: user, host: host}
		methods = append(methods,
			ssh.PasswordCallback(prompter.password),
			ssh.KeyboardInteractive(prompter.keyboardInteractive),
		)
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no SSH auth methods available (configure ssh-agent or private keys, or disable --ssh-batch)")
	}
	return methods, nil
}

func agentAuthMethod() ssh.AuthMethod {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	if sock == "" {
		return nil
	}

	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return agent.NewClient(conn).Signers()
	})
}

// loadKeySigners reads the unencrypted default keys in dir. Keys that need
// a passphrase are left to the agent.
func loadKeySigners(dir string) []ssh.Signer {
	signers := make([]ssh.Signer, 0, len(defaultPrivateKeyFiles))
	for _, name := range defaultPrivateKeyFiles {
		pem, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}

type passwordPrompter struct {
	user string
	host string

	once sync.Once
	pass string
	err  error
}

func (p *passwordPrompter) password() (string, error) {
	p.once.Do(func() {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			p.err = fmt.Errorf("cannot prompt for SSH password: stdin is not a terminal")
			return
		}
		fmt.Fprintf(os.Stderr, "%s@%s's password: ", p.user, p.host)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			p.err = fmt.Errorf("password prompt failed: %w", err)
			return
		}
		p.pass = string(b)
	})
	return p.pass, p.err
}

func (p *passwordPrompter) keyboardInteractive(_, _ string, questions []string, echos []bool) ([]string, error) {
	pass, err := p.password()
	if err != nil {
		return nil, err
	}

	answers := make([]string, len(questions))
	for i := range questions {
		if i < len(echos) && echos[i] {
			continue
		}
		answers[i] = pass
	}
	return answers, nil
}
