package fsys

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Billy adapts a go-billy filesystem, such as a git worktree or memfs.
type Billy struct {
	fs billy.Filesystem
}

// NewBilly wraps bfs.
func NewBilly(bfs billy.Filesystem) *Billy {
	return &Billy{fs: bfs}
}

// NewBillyMem returns an empty in-memory billy filesystem.
func NewBillyMem() *Billy {
	return &Billy{fs: memfs.New()}
}

// NewBillyOS returns a billy view of the whole local filesystem, taking
// the same absolute paths as NewOS.
func NewBillyOS() *Billy {
	return &Billy{fs: &nativeOS{}}
}

// nativeOS is osfs.ChrootOS without a chroot. ChrootOS alone lacks the
// Chroot and Root methods of billy.Filesystem.
type nativeOS struct {
	osfs.ChrootOS
}

func (n *nativeOS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (n *nativeOS) Root() string { return string(filepath.Separator) }

// Filesystem exposes the underlying billy filesystem.
func (b *Billy) Filesystem() billy.Filesystem { return b.fs }

func (b *Billy) Stat(name string) (fs.FileInfo, error) {
	return b.fs.Stat(name)
}

func (b *Billy) Lstat(name string) (fs.FileInfo, error) {
	return b.fs.Lstat(name)
}

func (b *Billy) ReadDir(name string) ([]fs.FileInfo, error) {
	return b.fs.ReadDir(name)
}

func (b *Billy) Separator() byte { return filepath.Separator }

// RealPath resolves symlinks on the native backend; others return the
// cleaned path.
func (b *Billy) RealPath(name string) (string, error) {
	if _, ok := b.fs.(*nativeOS); !ok {
		return filepath.Clean(name), nil
	}
	p, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", fmt.Errorf("billy: resolve %q: %w", name, err)
	}
	return p, nil
}

func (b *Billy) RemoveAll(name string) error {
	if err := util.RemoveAll(b.fs, name); err != nil {
		return fmt.Errorf("billy: remove %q: %w", name, err)
	}
	return nil
}

// WriteFile creates name with data, creating parent directories.
func (b *Billy) WriteFile(name string, data []byte) error {
	if err := b.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("billy: mkdirall %q: %w", name, err)
	}
	return util.WriteFile(b.fs, name, data, 0o644)
}

// MkdirAll creates a directory and any missing parents.
func (b *Billy) MkdirAll(name string) error {
	return b.fs.MkdirAll(name, 0o755)
}
