package filter

import (
	"time"

	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
)

// EmptyDir matches directories that have no entries. Unreadable directories
// do not match.
func EmptyDir(src fsys.FS) Predicate {
	return func(e model.Entry) bool {
		if !e.Dir {
			return false
		}
		empty, err := fsys.IsEmptyDir(src, e.Path)
		return err == nil && empty
	}
}

// NonEmptyFile matches directories and files with a non-zero size.
func NonEmptyFile(e model.Entry) bool {
	return e.Dir || e.Size > 0
}

// MinSize matches files of at least n bytes. Directories always pass.
func MinSize(n int64) Predicate {
	return func(e model.Entry) bool {
		return e.Dir || e.Size >= n
	}
}

// ModifiedSince matches entries modified at or after t.
func ModifiedSince(t time.Time) Predicate {
	return func(e model.Entry) bool {
		return !e.ModTime.Before(t)
	}
}
