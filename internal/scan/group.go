package scan

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrGroupActive is returned by Group.Scan while a joint run is active.
var ErrGroupActive = errors.New("group scan already active")

// Job pairs a member scanner with the listener for its run.
type Job struct {
	Scanner  *Scanner
	Listener Listener
}

// Group runs several scanners as one joint scan with a single completion.
type Group struct {
	opts Options
	log  logrus.FieldLogger

	mu      sync.Mutex
	cancel  context.CancelFunc
	members []*Scanner
	done    chan struct{}
}

// NewGroup returns an idle group. Only Dispatch and Logger are used from
// opts.
func NewGroup(opts Options) *Group {
	return &Group{opts: opts, log: opts.logger()}
}

// Active reports whether a joint run is in progress.
func (g *Group) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel != nil
}

// Scan stops and restarts every member, then calls onAllComplete once,
// through Options.Dispatch, after every member run has drained. It returns
// immediately. While a joint run is active it returns ErrGroupActive and
// does nothing. Cancelling ctx or calling Cancel stops all members and
// suppresses onAllComplete. A nil ctx is treated as context.Background.
func (g *Group) Scan(ctx context.Context, onAllComplete func(), jobs ...Job) error {
	if ctx == nil {
		ctx = context.Background()
	}
	g.mu.Lock()
	if g.cancel != nil {
		g.mu.Unlock()
		return ErrGroupActive
	}
	ctx, cancel := context.WithCancel(ctx)
	members := make([]*Scanner, 0, len(jobs))
	for _, j := range jobs {
		members = append(members, j.Scanner)
	}
	done := make(chan struct{})
	g.cancel = cancel
	g.members = members
	g.done = done
	g.mu.Unlock()

	runs := make([]*run, 0, len(jobs))
	for _, j := range jobs {
		j.Scanner.Stop()
		r, err := j.Scanner.start(ctx, j.Listener)
		if err != nil {
			g.log.WithError(err).WithField("root", j.Scanner.Root()).Debug("group member start")
		}
		runs = append(runs, r)
	}

	go g.supervise(ctx, cancel, done, runs, onAllComplete)
	return nil
}

func (g *Group) supervise(ctx context.Context, cancel context.CancelFunc, done chan struct{}, runs []*run, onAllComplete func()) {
	defer close(done)

	eg, egCtx := errgroup.WithContext(ctx)
	for _, r := range runs {
		eg.Go(func() error {
			select {
			case <-r.done:
				return nil
			case <-egCtx.Done():
				return egCtx.Err()
			}
		})
	}
	err := eg.Wait()

	g.mu.Lock()
	g.cancel = nil
	g.members = nil
	g.mu.Unlock()
	cancel()

	if err != nil {
		g.log.WithError(err).Info("group scan cancelled")
		return
	}
	g.log.WithField("members", len(runs)).Info("group scan finished")
	if onAllComplete != nil {
		g.opts.dispatch(onAllComplete)
	}
}

// Cancel ends the supervising wait and stops every member.
func (g *Group) Cancel() {
	g.mu.Lock()
	cancel := g.cancel
	members := g.members
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, s := range members {
		s.Stop()
	}
}

// Wait blocks until the current or last joint run's supervisor returns,
// or ctx is done.
func (g *Group) Wait(ctx context.Context) error {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
