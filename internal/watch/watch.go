// Package watch re-runs a scan when the scanned tree changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/fscan/internal/scan"
)

const DefaultDebounce = 500 * time.Millisecond

// WatchedOps are the fsnotify operations that trigger a rescan.
const WatchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// DefaultIgnore lists name fragments of editor and download scratch files.
var DefaultIgnore = []string{
	":Zone.Identifier",
	".tmp",
	".swp",
	"~",
}

type Options struct {
	Debounce time.Duration
	// Ignore drops events whose path contains any of these fragments.
	Ignore []string
	Logger logrus.FieldLogger
}

// Watcher reports changes below a local directory tree, coalescing bursts
// of events into one callback.
type Watcher struct {
	root      string
	fsw       *fsnotify.Watcher
	onChange  func()
	debouncer *Debouncer
	ignore    []string
	log       logrus.FieldLogger
}

// New watches root and every directory below it. onChange runs on a timer
// goroutine once events settle.
func New(root string, onChange func(), opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Ignore == nil {
		opts.Ignore = DefaultIgnore
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create watcher: %w", err)
	}
	w := &Watcher{
		root:      root,
		fsw:       fsw,
		onChange:  onChange,
		debouncer: NewDebouncer(opts.Debounce),
		ignore:    opts.Ignore,
		log:       opts.Logger.WithField("root", root),
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and its subdirectories. Directories that vanish or
// cannot be read while walking are skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.WithError(err).WithField("path", path).Debug("watch skipped")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
			w.log.WithError(err).WithField("path", path).Debug("watch skipped")
		}
		return nil
	})
}

// Run delivers change notifications until ctx is done, then releases the
// watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost; a rescan is the only safe answer.
				w.debouncer.Debounce(w.root, w.onChange)
				continue
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&WatchedOps == 0 {
		return
	}
	for _, frag := range w.ignore {
		if strings.Contains(event.Name, frag) {
			return
		}
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.WithError(err).WithField("path", event.Name).Debug("watch skipped")
			}
		}
	}

	w.log.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("change detected")
	w.debouncer.Debounce(w.root, w.onChange)
}

// Rescan returns an onChange callback that restarts s with l, abandoning
// the run in progress if there is one.
func Rescan(ctx context.Context, s *scan.Scanner, l scan.Listener, log logrus.FieldLogger) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		s.Stop()
		if err := s.Start(ctx, l); err != nil && log != nil {
			log.WithError(err).Warn("rescan failed")
		}
	}
}
