package model

import (
	"io/fs"
	"time"
)

// Entry is a file or directory encountered during traversal.
type Entry struct {
	Path    string // Full path, rooted at the scan root
	Name    string // Base name
	Dir     bool
	Hidden  bool
	Symlink bool
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
}

// NewEntry builds an Entry for path from its stat information.
func NewEntry(path string, info fs.FileInfo) Entry {
	name := info.Name()
	return Entry{
		Path:    path,
		Name:    name,
		Dir:     info.IsDir(),
		Hidden:  IsHiddenName(name),
		Symlink: info.Mode()&fs.ModeSymlink != 0,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
}

// IsHiddenName reports whether name follows the dot-file convention.
func IsHiddenName(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// Suffix returns the lowercase extension of the entry name without the dot.
// Names without an extension have suffix "".
func (e Entry) Suffix() string {
	return Suffix(e.Name)
}

// Category classifies the entry by extension. Directories are CatOther.
func (e Entry) Category() FileCategory {
	if e.Dir {
		return CatOther
	}
	return ClassifyFile(e.Name)
}
