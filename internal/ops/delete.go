package ops

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/sadopc/fscan/internal/fsys"
)

// ErrOutsideRoot is returned when a delete target is not strictly below the
// scan root.
var ErrOutsideRoot = errors.New("outside scan root")

type localFS interface {
	Local() bool
}

// Delete removes the entry at path from src. Directories are removed with
// their whole subtree and symlinks are removed, never followed. root
// constrains deletion to descendants of the scan root.
func Delete(src fsys.FS, path, root string) error {
	if l, ok := src.(localFS); ok && l.Local() {
		return deleteLocal(path, root)
	}

	sep := src.Separator()
	target := fsys.Clean(src, path)
	base := fsys.Clean(src, root)
	if !within(sep, base, target) {
		return fmt.Errorf("refusing to delete %s: %w %s", target, ErrOutsideRoot, base)
	}

	rm, ok := src.(fsys.Remover)
	if !ok {
		return fmt.Errorf("cannot delete %s: filesystem is read-only", target)
	}
	if _, err := src.Lstat(target); err != nil {
		return fmt.Errorf("cannot access %s: %w", target, err)
	}
	if err := rm.RemoveAll(target); err != nil {
		return fmt.Errorf("cannot delete %s: %w", target, err)
	}
	return nil
}

// DeleteAll deletes every path, continuing past failures. It returns the
// number of entries removed and every error encountered.
func DeleteAll(src fsys.FS, root string, paths []string) (int, error) {
	var (
		removed int
		result  *multierror.Error
	)
	for _, p := range paths {
		if err := Delete(src, p, root); err != nil {
			// A parent deleted earlier in the batch already took this one.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			result = multierror.Append(result, err)
			continue
		}
		removed++
	}
	return removed, result.ErrorOrNil()
}

func deleteLocal(path, root string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve root %s: %w", root, err)
	}
	if !within(filepath.Separator, absRoot, absPath) {
		return fmt.Errorf("refusing to delete %s: %w %s", absPath, ErrOutsideRoot, absRoot)
	}

	// The parent chain may contain symlinks; check containment again
	// after resolving it so a link cannot redirect the delete.
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return fmt.Errorf("cannot resolve root %s: %w", absRoot, err)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(absPath))
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", absPath, err)
	}
	name := filepath.Base(absPath)
	if parent != realRoot && !within(filepath.Separator, realRoot, parent) {
		return fmt.Errorf("refusing to delete %s: %w %s", absPath, ErrOutsideRoot, absRoot)
	}

	if err := deleteResolvedPath(parent, name); err != nil {
		return fmt.Errorf("cannot delete %s: %w", absPath, err)
	}
	return nil
}

// within reports whether target lies strictly below root.
func within(sep byte, root, target string) bool {
	s := string(sep)
	for _, seg := range strings.Split(target, s) {
		if seg == ".." {
			return false
		}
	}
	prefix := root
	if !strings.HasSuffix(prefix, s) {
		prefix += s
	}
	return len(target) > len(prefix) && strings.HasPrefix(target, prefix)
}
