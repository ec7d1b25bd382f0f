// Package fsys abstracts the two filesystem primitives a scan needs:
// listing a directory and stating an entry. Local, in-memory, go-billy and
// SFTP backends all satisfy FS.
package fsys

import (
	"errors"
	"io/fs"
	"strings"
)

// FS is the read-only view of a filesystem used by the scanner.
type FS interface {
	// Stat returns information about name, following symlinks.
	Stat(name string) (fs.FileInfo, error)
	// Lstat returns information about name without following symlinks.
	Lstat(name string) (fs.FileInfo, error)
	// ReadDir lists the entries of a directory. Entries describe the link
	// itself for symlinks.
	ReadDir(name string) ([]fs.FileInfo, error)
	// Separator is the path separator used by this filesystem.
	Separator() byte
}

// Resolver is implemented by filesystems that can canonicalize a path.
// The scanner uses it to visit each symlinked directory once.
type Resolver interface {
	RealPath(name string) (string, error)
}

// Remover is implemented by filesystems that support deleting entries.
type Remover interface {
	RemoveAll(name string) error
}

// Join appends name to dir using the filesystem separator.
func Join(fsys FS, dir, name string) string {
	sep := fsys.Separator()
	if dir == "" {
		return name
	}
	if dir[len(dir)-1] == sep {
		return dir + name
	}
	return dir + string(sep) + name
}

// Clean strips trailing separators from p, keeping a bare root intact.
func Clean(fsys FS, p string) string {
	sep := string(fsys.Separator())
	for len(p) > 1 && strings.HasSuffix(p, sep) {
		p = strings.TrimSuffix(p, sep)
	}
	return p
}

// Exists reports whether name exists. A not-exist error is not an error.
func Exists(fsys FS, name string) (bool, error) {
	_, err := fsys.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// IsEmptyDir reports whether name is a directory with no entries.
func IsEmptyDir(fsys FS, name string) (bool, error) {
	entries, err := fsys.ReadDir(name)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
