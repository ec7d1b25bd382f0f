package watch

import (
	"sync"
	"time"
)

// Debouncer delays a call until no new call for the same key has arrived
// for the configured duration.
type Debouncer struct {
	duration time.Duration
	mu       sync.Mutex
	timers   map[string]*time.Timer
	stopped  bool
}

func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		timers:   make(map[string]*time.Timer),
	}
}

// Debounce schedules fn under key, replacing any call still pending for it.
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// A newer Debounce may have replaced this timer after it fired.
		if d.timers[key] != timer || d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = timer
}

// Stop cancels every pending call. Later Debounce calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
