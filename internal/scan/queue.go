package scan

import (
	"io/fs"
	"sync"
)

// task is one unit of traversal work: a single entry. The root task is
// listed but never emitted.
type task struct {
	path string
	info fs.FileInfo
	root bool
}

// queue is an unbounded LIFO work queue shared by a run's workers. LIFO
// keeps the frontier close to depth-first so memory follows tree depth
// rather than tree width.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []task
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(ts ...task) {
	q.mu.Lock()
	q.items = append(q.items, ts...)
	q.mu.Unlock()
	if len(ts) == 1 {
		q.cond.Signal()
	} else {
		q.cond.Broadcast()
	}
}

// pop blocks until a task is available. It returns false once the queue
// is closed and drained.
func (q *queue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return task{}, false
	}
	n := len(q.items) - 1
	t := q.items[n]
	q.items[n] = task{}
	q.items = q.items[:n]
	return t, true
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
