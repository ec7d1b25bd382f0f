package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/sadopc/fscan/internal/config"
	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/ops"
	"github.com/sadopc/fscan/internal/scan"
	"github.com/sadopc/fscan/internal/ui/components"
	"github.com/sadopc/fscan/internal/util"
	"github.com/sadopc/fscan/internal/watch"
)

const progressInterval = 200 * time.Millisecond

// collector gathers matches from concurrent workers. With out set, each
// match is printed as it arrives instead of being kept.
type collector struct {
	mu      sync.Mutex
	out     io.Writer
	long    bool
	entries []model.Entry
	missing []string
	runIDs  []string
}

func (c *collector) listener(log logrus.FieldLogger) scan.Listener {
	return scan.Funcs{
		Match: c.add,
		Complete: func(s scan.Summary) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if s.RootMissing {
				c.missing = append(c.missing, s.Root)
				return
			}
			c.runIDs = append(c.runIDs, s.RunID)
			log.WithFields(logrus.Fields{
				"root":    s.Root,
				"matches": s.Matches,
				"errors":  s.Errors,
				"elapsed": util.FormatElapsed(s.Elapsed),
			}).Info("scan complete")
		},
		Error: func(path string, err error) {
			log.WithError(err).WithField("path", path).Warn("cannot read entry")
		},
	}
}

func (c *collector) add(e model.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil {
		c.entries = append(c.entries, e)
		return
	}
	if c.long {
		size := "-"
		if !e.Dir {
			size = util.FormatSize(e.Size)
		}
		fmt.Fprintf(c.out, "%10s  %s  %s\n", size, e.ModTime.Format("2006-01-02 15:04"), e.Path)
		return
	}
	fmt.Fprintln(c.out, e.Path)
}

// result returns the missing roots and run ids seen so far.
func (c *collector) result() (missing, runIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.missing...), append([]string(nil), c.runIDs...)
}

// runHeadless scans every root once, either streaming matches to stdout
// or writing them to an export file.
func runHeadless(ctx context.Context, cfg *config.Config, o *options, roots []scanRoot, spec filterSpec, opts scan.Options, env *runtimeEnv, stdout, stderr io.Writer) error {
	exportPath := cfg.Export.Path
	exporting := exportPath != ""

	scanners, err := newScanners(roots, spec, cfg.Scan.MaxDepth, opts)
	if err != nil {
		return err
	}

	paths := rootPaths(roots)
	if exporting && exportPath != "-" && !o.plain {
		fmt.Fprintf(stdout, "Scanning %s...\n", strings.Join(paths, ", "))
	}

	c := &collector{long: o.long}
	if !exporting {
		c.out = stdout
	}
	jobs := make([]scan.Job, len(scanners))
	for i, s := range scanners {
		jobs[i] = scan.Job{Scanner: s, Listener: c.listener(env.log)}
	}

	group := scan.NewGroup(opts)
	done := make(chan struct{})
	if err := group.Scan(ctx, func() { close(done) }, jobs...); err != nil {
		return err
	}

	// Streamed matches share the terminal with the progress line, so it is
	// only drawn while stdout goes elsewhere.
	stopProgress := func() {}
	if exportPath != "-" && (exporting || !isTerminal(stdout)) {
		stopProgress = showProgress(stderr, scanners)
	}

	select {
	case <-done:
		stopProgress()
	case <-ctx.Done():
		stopProgress()
		group.Cancel()
		_ = group.Wait(context.Background())
		return errStopped
	}

	missing, runIDs := c.result()
	if len(missing) == len(roots) {
		return fmt.Errorf("%w: %s", scan.ErrRootNotFound, strings.Join(missing, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(stderr, "Warning: not found: %s\n", strings.Join(missing, ", "))
	}

	if !exporting {
		return nil
	}

	model.SortEntries(c.entries, model.DefaultSort())
	snap := ops.Snapshot{
		Root:      ops.JoinRoots(paths),
		RunID:     strings.Join(runIDs, ","),
		Version:   version,
		Timestamp: time.Now(),
		Entries:   c.entries,
	}
	if exportPath == "-" {
		return ops.WriteJSON(stdout, snap)
	}
	if err := ops.ExportJSON(snap, exportPath); err != nil {
		return fmt.Errorf("export error: %w", err)
	}
	fmt.Fprintf(stdout, "Exported to %s\n", exportPath)
	return nil
}

// showProgress redraws a progress line on stderr while scanners run. It
// draws nothing unless stderr is a terminal. The returned func stops it.
func showProgress(stderr io.Writer, scanners []*scan.Scanner) func() {
	if !isTerminal(stderr) {
		return func() {}
	}
	f := stderr.(*os.File)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(f, "\r\x1b[K%s", components.ProgressLine(totalProgress(scanners)))
			case <-stop:
				fmt.Fprint(f, "\r\x1b[K")
				return
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func totalProgress(scanners []*scan.Scanner) scan.Progress {
	var total scan.Progress
	for _, s := range scanners {
		p := s.Progress()
		total.Entries += p.Entries
		total.Dirs += p.Dirs
		total.Matches += p.Matches
		total.Errors += p.Errors
		total.Pending += p.Pending
		total.Running = total.Running || p.Running
		if p.Duration > total.Duration {
			total.Duration = p.Duration
		}
	}
	return total
}

// runWatch streams one full scan per root, then rescans a root each time
// something below it changes, until ctx is done.
func runWatch(ctx context.Context, cfg *config.Config, o *options, roots []scanRoot, spec filterSpec, opts scan.Options, env *runtimeEnv, stdout, stderr io.Writer) error {
	scanners, err := newScanners(roots, spec, cfg.Scan.MaxDepth, opts)
	if err != nil {
		return err
	}

	c := &collector{out: stdout, long: o.long}
	watchers := make([]*watch.Watcher, 0, len(scanners))
	for _, s := range scanners {
		l := c.listener(env.log)
		w, err := watch.New(s.Root(), watch.Rescan(ctx, s, l, env.log), watch.Options{
			Debounce: cfg.Watch.Debounce,
			Logger:   env.log.WithField("root", s.Root()),
		})
		if err != nil {
			return err
		}
		watchers = append(watchers, w)

		if err := s.Start(ctx, l); err != nil {
			return err
		}
	}
	fmt.Fprintf(stderr, "Watching %s for changes (Ctrl+C to stop)\n", strings.Join(rootPaths(roots), ", "))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range watchers {
		g.Go(func() error { return w.Run(gctx) })
	}
	err = g.Wait()

	for _, s := range scanners {
		s.Stop()
		_ = s.Wait(context.Background())
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
