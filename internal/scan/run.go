package scan

import (
	"errors"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/fscan/internal/filter"
	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
)

// config is the per-run snapshot of scanner settings.
type config struct {
	root       string
	rootPrefix string
	sep        byte
	maxDepth   int
	result     *filter.Rule
	preListing *filter.Rule
	follow     bool
}

// depth counts separators in path beyond the root prefix. The root itself
// is depth 0.
func (c config) depth(path string) int {
	if path == c.root {
		return 0
	}
	return strings.Count(strings.TrimPrefix(path, c.rootPrefix), string(c.sep))
}

func (c config) depthReached(path string) bool {
	return c.maxDepth > 0 && c.depth(path) >= c.maxDepth
}

// run is the state of one Start call. Runs never share mutable state, so a
// stopped run may keep draining while the scanner starts a new one.
type run struct {
	id       string
	cfg      config
	src      fsys.FS
	opts     Options
	listener Listener
	log      logrus.FieldLogger
	metrics  *metrics
	onFinish func(*run, Summary)

	queue   *queue
	visited *xsync.MapOf[string, struct{}]
	stopped atomic.Bool
	done    chan struct{}
	start   time.Time
	detach  func() bool

	mu      sync.Mutex
	pending int
	fired   bool
	end     time.Time

	entries atomic.Int64
	dirs    atomic.Int64
	matches atomic.Int64
	errors  atomic.Int64
}

func newRun(s *Scanner, cfg config, l Listener) *run {
	id := uuid.NewString()
	r := &run{
		id:       id,
		cfg:      cfg,
		src:      s.src,
		opts:     s.opts,
		listener: l,
		log:      s.log.WithFields(logrus.Fields{"run_id": id, "root": cfg.root}),
		metrics:  s.metrics,
		onFinish: s.finished,
		queue:    newQueue(),
		done:     make(chan struct{}),
		start:    time.Now(),
	}
	if cfg.follow {
		r.visited = xsync.NewMapOf[string, struct{}]()
	}
	return r
}

// launch schedules the root task and starts the workers.
func (r *run) launch(root task) {
	r.acquire(1)
	r.queue.push(root)
	for i := 0; i < r.opts.workers(); i++ {
		go r.work()
	}
}

func (r *run) work() {
	for {
		t, ok := r.queue.pop()
		if !ok {
			return
		}
		r.process(t)
	}
}

func (r *run) stop() {
	if r.stopped.CompareAndSwap(false, true) {
		r.log.Debug("scan stop requested")
	}
}

// acquire records n newly scheduled tasks. It must be called before the
// tasks are pushed so none of them can finish first.
func (r *run) acquire(n int) {
	r.mu.Lock()
	r.pending += n
	r.mu.Unlock()
}

// release marks one task finished. The transition to zero fires the
// completion exactly once.
func (r *run) release() {
	r.mu.Lock()
	r.pending--
	if r.pending < 0 {
		r.mu.Unlock()
		panic("scan: pending task count went negative")
	}
	last := r.pending == 0 && !r.fired
	if last {
		r.fired = true
		r.end = time.Now()
	}
	r.mu.Unlock()

	if last {
		r.finish()
	}
}

func (r *run) finish() {
	r.queue.close()
	if r.detach != nil {
		r.detach()
	}

	sum := Summary{
		RunID:   r.id,
		Root:    r.cfg.root,
		Elapsed: r.end.Sub(r.start),
		Stopped: r.stopped.Load(),
		Matches: r.matches.Load(),
		Errors:  r.errors.Load(),
	}
	r.conclude(sum)
}

// rootMissing ends a run whose root could not be stated. No task was
// scheduled.
func (r *run) rootMissing() {
	r.mu.Lock()
	r.fired = true
	r.end = r.start
	r.mu.Unlock()
	r.queue.close()

	r.conclude(Summary{
		RunID:       r.id,
		Root:        r.cfg.root,
		Elapsed:     ElapsedRootNotFound,
		RootMissing: true,
		Errors:      r.errors.Load(),
	})
}

func (r *run) conclude(sum Summary) {
	r.onFinish(r, sum)
	r.metrics.recordRun(sum, r.entries.Load())

	r.log.WithFields(logrus.Fields{
		"elapsed":      sum.Elapsed,
		"matches":      sum.Matches,
		"errors":       sum.Errors,
		"stopped":      sum.Stopped,
		"root_missing": sum.RootMissing,
	}).Info("scan finished")

	if !sum.Stopped || r.opts.NotifyOnStop {
		r.opts.dispatch(func() { r.listener.OnComplete(sum) })
	}
	close(r.done)
}

// process handles exactly one entry: emit it if it matches, then list it
// if it is a directory within the depth limit. The pending slot is
// released on every path out.
func (r *run) process(t task) {
	defer r.release()

	if r.stopped.Load() {
		return
	}

	if t.root {
		if t.info.IsDir() && !r.cfg.depthReached(t.path) {
			r.expand(t.path)
		}
		return
	}

	entry := r.resolve(t)
	r.entries.Add(1)

	if r.cfg.result.Match(entry) {
		if r.stopped.Load() {
			return
		}
		r.matches.Add(1)
		r.listener.OnMatch(entry)
	}

	if !entry.Dir || r.cfg.depthReached(t.path) || r.stopped.Load() {
		return
	}
	r.expand(t.path)
}

// resolve builds the entry for t. With FollowSymlinks, a link takes on the
// attributes of its target but keeps its own path and name.
func (r *run) resolve(t task) model.Entry {
	entry := model.NewEntry(t.path, t.info)
	if !entry.Symlink || !r.cfg.follow {
		return entry
	}

	target, err := r.src.Stat(t.path)
	if err != nil {
		// Dangling link: report it as the link itself.
		return entry
	}
	resolved := model.NewEntry(t.path, target)
	resolved.Name = entry.Name
	resolved.Hidden = entry.Hidden
	resolved.Symlink = true
	return resolved
}

// expand lists dir and schedules one task per child that passes the
// pre-listing filter.
func (r *run) expand(dir string) {
	if r.visited != nil && !r.firstVisit(dir) {
		return
	}

	infos, err := r.src.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		r.fail(dir, err)
		return
	}
	r.dirs.Add(1)

	children := make([]task, 0, len(infos))
	for _, info := range infos {
		p := fsys.Join(r.src, dir, info.Name())
		if r.cfg.preListing != nil && !r.cfg.preListing.Match(model.NewEntry(p, info)) {
			continue
		}
		children = append(children, task{path: p, info: info})
	}

	if len(children) == 0 || r.stopped.Load() {
		return
	}
	r.acquire(len(children))
	r.queue.push(children...)
}

func (r *run) firstVisit(dir string) bool {
	key := dir
	if res, ok := r.src.(fsys.Resolver); ok {
		if p, err := res.RealPath(dir); err == nil {
			key = p
		}
	}
	_, loaded := r.visited.LoadOrStore(key, struct{}{})
	return !loaded
}

func (r *run) fail(path string, err error) {
	r.errors.Add(1)
	r.log.WithError(err).WithField("path", path).Debug("scan entry failed")
	r.listener.OnError(path, err)
}

func (r *run) progress() Progress {
	r.mu.Lock()
	pending := r.pending
	fired := r.fired
	end := r.end
	r.mu.Unlock()

	dur := time.Since(r.start)
	if fired {
		dur = end.Sub(r.start)
	}
	return Progress{
		RunID:     r.id,
		Entries:   r.entries.Load(),
		Dirs:      r.dirs.Load(),
		Matches:   r.matches.Load(),
		Errors:    r.errors.Load(),
		Pending:   int64(pending),
		Running:   !fired,
		Stopped:   r.stopped.Load(),
		StartTime: r.start,
		Duration:  dur,
	}
}
