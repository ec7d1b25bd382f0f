//go:build !windows

package ops

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// deleteResolvedPath removes name inside the already-resolved directory
// parent. Everything below parent is addressed relative to open directory
// descriptors, so a symlink swapped in mid-delete is unlinked, not followed.
func deleteResolvedPath(parent, name string) error {
	fd, err := unix.Open(parent, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return mapErrno(err)
	}
	defer unix.Close(fd)
	return unlinkTree(fd, name)
}

func unlinkTree(dirFD int, name string) error {
	err := unix.Unlinkat(dirFD, name, 0)
	if err == nil {
		return nil
	}
	// Linux reports EISDIR for directories, BSDs report EPERM.
	if !errors.Is(err, unix.EISDIR) && !errors.Is(err, unix.EPERM) {
		return mapErrno(err)
	}

	childFD, err := unix.Openat(dirFD, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if errors.Is(err, unix.ENOTDIR) {
		// Replaced by a file or link since the first unlink.
		return mapErrno(unix.Unlinkat(dirFD, name, 0))
	}
	if err != nil {
		return mapErrno(err)
	}

	dir := os.NewFile(uintptr(childFD), name)
	names, err := dir.Readdirnames(-1)
	if err != nil {
		_ = dir.Close()
		return err
	}
	for _, child := range names {
		if err := unlinkTree(childFD, child); err != nil && !errors.Is(err, fs.ErrNotExist) {
			_ = dir.Close()
			return err
		}
	}
	if err := dir.Close(); err != nil {
		return err
	}
	return mapErrno(unix.Unlinkat(dirFD, name, unix.AT_REMOVEDIR))
}

func mapErrno(err error) error {
	if errors.Is(err, unix.ENOENT) {
		return fs.ErrNotExist
	}
	return err
}
