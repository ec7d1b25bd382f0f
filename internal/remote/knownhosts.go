package remote

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func knownHostAddress(host string, port int) string {
	if port == 22 {
		return host
	}
	return fmt.Sprintf("[%s]:%d", host, port)
}

func knownHostCandidates(host string, port int) map[string]bool {
	candidates := map[string]bool{fmt.Sprintf("[%s]:%d", host, port): true}
	if port == 22 {
		candidates[host] = true
	}
	return candidates
}

func addKnownHost(path, host string, port int, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("cannot update known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownHostAddress(host, port)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("cannot write known_hosts entry: %w", err)
	}
	return nil
}

func replaceKnownHost(path, host string, port int, key ssh.PublicKey) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read known_hosts: %w", err)
	}

	updated := removeKnownHostEntries(data, host, port)
	if len(updated) > 0 && updated[len(updated)-1] != '\n' {
		updated = append(updated, '\n')
	}
	updated = append(updated, knownhosts.Line([]string{knownHostAddress(host, port)}, key)...)
	updated = append(updated, '\n')

	if err := os.WriteFile(path, updated, 0o600); err != nil {
		return fmt.Errorf("cannot write known_hosts: %w", err)
	}
	return nil
}

// removeKnownHostEntries drops every line naming host on port, keeping
// comments, blank lines and other hosts.
func removeKnownHostEntries(data []byte, host string, port int) []byte {
	candidates := knownHostCandidates(host, port)
	lines := strings.Split(string(data), "\n")
	keep := lines[:0]

	for _, line := range lines {
		if !lineNamesHost(line, candidates) {
			keep = append(keep, line)
		}
	}
	return []byte(strings.Join(keep, "\n"))
}

func lineNamesHost(line string, candidates map[string]bool) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}

	fields := strings.Fields(trimmed)
	idx := 0
	if strings.HasPrefix(fields[0], "@") {
		// Marker lines (@cert-authority, @revoked) carry hosts in field 2.
		if len(fields) < 2 {
			return false
		}
		idx = 1
	}

	for _, h := range strings.Split(fields[idx], ",") {
		if candidates[h] {
			return true
		}
	}
	return false
}
