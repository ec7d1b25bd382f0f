package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Afero adapts an afero.Fs.
type Afero struct {
	fs afero.Fs
	os bool
}

// NewOS returns a filesystem backed by the operating system.
func NewOS() *Afero {
	return &Afero{fs: afero.NewOsFs(), os: true}
}

// NewMem returns an empty in-memory filesystem.
func NewMem() *Afero {
	return &Afero{fs: afero.NewMemMapFs()}
}

// NewAfero wraps an existing afero filesystem.
func NewAfero(a afero.Fs) *Afero {
	_, isOS := a.(*afero.OsFs)
	return &Afero{fs: a, os: isOS}
}

// Fs exposes the underlying afero filesystem, for seeding test trees.
func (a *Afero) Fs() afero.Fs { return a.fs }

// Local reports whether paths refer to the operating system's filesystem.
func (a *Afero) Local() bool { return a.os }

func (a *Afero) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *Afero) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := a.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return a.fs.Stat(name)
}

func (a *Afero) ReadDir(name string) ([]fs.FileInfo, error) {
	return afero.ReadDir(a.fs, name)
}

func (a *Afero) Separator() byte { return filepath.Separator }

// RealPath resolves symlinks. Only the OS backend can see through links;
// other backends return the cleaned path.
func (a *Afero) RealPath(name string) (string, error) {
	if !a.os {
		return filepath.Clean(name), nil
	}
	p, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return p, nil
}

func (a *Afero) RemoveAll(name string) error {
	return a.fs.RemoveAll(name)
}

// WriteFile creates name with data, creating parent directories.
func (a *Afero) WriteFile(name string, data []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(a.fs, name, data, 0o644)
}

// MkdirAll creates a directory and any missing parents.
func (a *Afero) MkdirAll(name string) error {
	return a.fs.MkdirAll(name, os.ModePerm)
}
