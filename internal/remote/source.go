// Package remote exposes a filesystem on an SSH host as an fsys.FS, so the
// scanner can traverse it over SFTP.
package remote

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	pathpkg "path"
	"strings"
)

const defaultRemotePath = "."

type sftpClient interface {
	ReadDir(string) ([]os.FileInfo, error)
	Stat(string) (os.FileInfo, error)
	Lstat(string) (os.FileInfo, error)
	RealPath(string) (string, error)
	Remove(string) error
	RemoveDirectory(string) error
}

// Source is a remote filesystem reached over SFTP. Paths are POSIX paths on
// the remote host. Source is safe for concurrent use.
type Source struct {
	target string
	client sftpClient
	closer io.Closer
}

// Target returns the user@host the source is connected to.
func (s *Source) Target() string { return s.target }

// ResolveRoot canonicalizes a remote scan root. An empty path means the
// login directory.
func (s *Source) ResolveRoot(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		p = defaultRemotePath
	}
	root := cleanRemotePath(p)
	resolved, err := s.client.RealPath(root)
	if err != nil {
		return "", fmt.Errorf("cannot resolve remote path %q: %w", root, err)
	}
	return cleanRemotePath(resolved), nil
}

func (s *Source) Stat(name string) (fs.FileInfo, error) {
	return s.client.Stat(cleanRemotePath(name))
}

func (s *Source) Lstat(name string) (fs.FileInfo, error) {
	return s.client.Lstat(cleanRemotePath(name))
}

// ReadDir lists a remote directory. Devices, sockets and pipes are left out.
func (s *Source) ReadDir(name string) ([]fs.FileInfo, error) {
	infos, err := s.client.ReadDir(cleanRemotePath(name))
	if err != nil {
		return nil, err
	}
	out := infos[:0]
	for _, info := range infos {
		if isSpecialRemoteMode(info.Mode()) {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *Source) Separator() byte { return '/' }

func (s *Source) RealPath(name string) (string, error) {
	p, err := s.client.RealPath(cleanRemotePath(name))
	if err != nil {
		return "", err
	}
	return cleanRemotePath(p), nil
}

// RemoveAll deletes name and, for directories, everything below it.
// Symlinks are removed, never followed.
func (s *Source) RemoveAll(name string) error {
	name = cleanRemotePath(name)
	info, err := s.client.Lstat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return s.client.Remove(name)
	}

	children, err := s.client.ReadDir(name)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.RemoveAll(pathpkg.Join(name, child.Name())); err != nil {
			return err
		}
	}
	return s.client.RemoveDirectory(name)
}

// Close ends the SFTP session and the SSH connection.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func cleanRemotePath(p string) string {
	if p == "" {
		return defaultRemotePath
	}
	clean := pathpkg.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == "" {
		return defaultRemotePath
	}
	return clean
}

func isSpecialRemoteMode(mode os.FileMode) bool {
	return mode&(os.ModeDevice|os.ModeCharDevice|os.ModeSocket|os.ModeNamedPipe|os.ModeIrregular) != 0
}
