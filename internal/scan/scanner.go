// Package scan implements a concurrent, cancellable file-tree scanner.
//
// A Scanner owns one root and runs at most one traversal at a time. Each
// run fans directory entries out over a pool of workers, streams entries
// that pass the result filter to a Listener, and reports exactly one
// completion when its last task finishes. A Group joins several scanners
// into a single scan with one completion.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/fscan/internal/filter"
	"github.com/sadopc/fscan/internal/fsys"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is active.
	ErrAlreadyRunning = errors.New("scan already running")
	// ErrRootNotFound is returned by Start when the root does not exist.
	ErrRootNotFound = errors.New("scan root not found")
)

// Scanner scans one root on one filesystem.
type Scanner struct {
	src     fsys.FS
	root    string
	opts    Options
	log     logrus.FieldLogger
	metrics *metrics

	mu         sync.Mutex
	maxDepth   int
	result     *filter.Rule
	preListing *filter.Rule
	current    *run
	last       *run
	elapsed    time.Duration
}

// New returns an idle scanner for root on src. Root is used as given apart
// from stripping trailing separators, so reported paths are relative when
// root is.
func New(src fsys.FS, root string, opts Options) *Scanner {
	return &Scanner{
		src:     src,
		root:    fsys.Clean(src, root),
		opts:    opts,
		log:     opts.logger(),
		metrics: newMetrics(opts.MeterProvider),
	}
}

// NewScanner returns an idle scanner for root on the local filesystem.
// A relative root is made absolute against the working directory.
func NewScanner(root string, opts Options) *Scanner {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return New(fsys.NewOS(), root, opts)
}

// Root returns the scan root.
func (s *Scanner) Root() string { return s.root }

// FS returns the filesystem the scanner reads.
func (s *Scanner) FS() fsys.FS { return s.src }

// SetDepthLimit limits listing to directories fewer than n separators below
// the root. n <= 0 removes the limit. Takes effect on the next Start.
func (s *Scanner) SetDepthLimit(n int) {
	s.mu.Lock()
	s.maxDepth = n
	s.mu.Unlock()
}

// SetResultFilter sets the rule deciding which entries are emitted.
// A nil rule emits every entry.
func (s *Scanner) SetResultFilter(r *filter.Rule) {
	s.mu.Lock()
	s.result = r
	s.mu.Unlock()
}

// SetPreListingFilter sets the rule applied to a directory's children
// before they are scheduled. A child rejected here is neither emitted nor
// traversed.
func (s *Scanner) SetPreListingFilter(r *filter.Rule) {
	s.mu.Lock()
	s.preListing = r
	s.mu.Unlock()
}

// Running reports whether a run is active and not stopped.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Elapsed returns the duration of the last run that completed without
// being stopped, or ElapsedRootNotFound if its root was missing.
func (s *Scanner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Progress returns a snapshot of the most recent run.
func (s *Scanner) Progress() Progress {
	s.mu.Lock()
	r := s.last
	s.mu.Unlock()
	if r == nil {
		return Progress{}
	}
	return r.progress()
}

// Start begins a run and returns immediately; results arrive on l.
// It returns ErrAlreadyRunning, without side effects, while a run is
// active. When the root does not exist, l.OnComplete is delivered with
// Elapsed set to ElapsedRootNotFound and the error wraps ErrRootNotFound.
// Cancelling ctx stops the run.
func (s *Scanner) Start(ctx context.Context, l Listener) error {
	_, err := s.start(ctx, l)
	return err
}

// start returns the run it created, or the active run with
// ErrAlreadyRunning. The run's done channel is always valid.
func (s *Scanner) start(ctx context.Context, l Listener) (*run, error) {
	if l == nil {
		l = Funcs{}
	}

	s.mu.Lock()
	if s.current != nil {
		r := s.current
		s.mu.Unlock()
		return r, ErrAlreadyRunning
	}
	cfg := config{
		root:       s.root,
		rootPrefix: s.root,
		sep:        s.src.Separator(),
		maxDepth:   s.maxDepth,
		result:     s.result,
		preListing: s.preListing,
		follow:     s.opts.FollowSymlinks,
	}
	if len(cfg.rootPrefix) == 1 && cfg.rootPrefix[0] == cfg.sep {
		cfg.rootPrefix = ""
	}
	r := newRun(s, cfg, l)
	s.current = r
	s.last = r
	s.mu.Unlock()

	info, err := s.src.Stat(s.root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.fail(s.root, err)
			r.rootMissing()
			return r, fmt.Errorf("stat root %s: %w", s.root, err)
		}
		r.rootMissing()
		return r, fmt.Errorf("%w: %s", ErrRootNotFound, s.root)
	}

	if ctx != nil {
		r.detach = context.AfterFunc(ctx, func() { s.stopRun(r) })
	}

	r.log.WithField("workers", s.opts.workers()).Info("scan started")
	s.opts.dispatch(l.OnBegin)
	r.launch(task{path: s.root, info: info, root: true})
	return r, nil
}

// Stop asks the active run to stop. It does not wait: tasks already
// scheduled drain in the background and no further matches are emitted.
// The scanner may be started again immediately.
func (s *Scanner) Stop() {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()

	if r != nil {
		s.stopRun(r)
	}
}

func (s *Scanner) stopRun(r *run) {
	s.mu.Lock()
	if s.current == r {
		s.current = nil
	}
	s.mu.Unlock()
	r.stop()
}

// Wait blocks until the most recent run has drained, or ctx is done.
func (s *Scanner) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.last
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finished is called once per run, before its completion is dispatched.
func (s *Scanner) finished(r *run, sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == r {
		s.current = nil
	}
	if !sum.Stopped {
		s.elapsed = sum.Elapsed
	}
}
