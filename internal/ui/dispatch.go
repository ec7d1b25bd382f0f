package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// callbackMsg carries an engine notification into Update, where it runs
// with exclusive access to the model.
type callbackMsg func()

// Dispatcher delivers scan notifications on the Bubble Tea event loop. Its
// Dispatch method is meant for scan.Options.Dispatch.
//
// Dispatch blocks until the program accepts the message, so a scan must
// never be started or restarted synchronously from Update; start it from a
// tea.Cmd instead.
type Dispatcher struct {
	mu   sync.Mutex
	prog *tea.Program
}

// Attach routes later notifications through p.
func (d *Dispatcher) Attach(p *tea.Program) {
	d.mu.Lock()
	d.prog = p
	d.mu.Unlock()
}

// Dispatch runs fn inside the program's Update. Without an attached
// program fn runs immediately on the calling goroutine. Once the program
// has exited, notifications are dropped.
func (d *Dispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	p := d.prog
	d.mu.Unlock()

	if p == nil {
		fn()
		return
	}
	p.Send(callbackMsg(fn))
}
