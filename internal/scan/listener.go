package scan

import (
	"time"

	"github.com/sadopc/fscan/internal/model"
)

// ElapsedRootNotFound is the Summary.Elapsed reported when the scan root
// does not exist.
const ElapsedRootNotFound time.Duration = -1

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Root    string
	Elapsed time.Duration
	// Stopped is set when the run ended through Stop (only delivered with
	// Options.NotifyOnStop).
	Stopped bool
	// RootMissing is set when the root did not exist; Elapsed is then
	// ElapsedRootNotFound.
	RootMissing bool
	Matches     int64
	Errors      int64
}

// Listener observes a run.
//
// OnMatch and OnError are called from worker goroutines, concurrently.
// OnBegin and OnComplete go through Options.Dispatch. No scanner lock is
// held while a listener method runs.
type Listener interface {
	OnBegin()
	OnMatch(e model.Entry)
	OnComplete(s Summary)
	OnError(path string, err error)
}

// Funcs adapts plain functions to a Listener. Nil fields are skipped.
type Funcs struct {
	Begin    func()
	Match    func(model.Entry)
	Complete func(Summary)
	Error    func(path string, err error)
}

func (f Funcs) OnBegin() {
	if f.Begin != nil {
		f.Begin()
	}
}

func (f Funcs) OnMatch(e model.Entry) {
	if f.Match != nil {
		f.Match(e)
	}
}

func (f Funcs) OnComplete(s Summary) {
	if f.Complete != nil {
		f.Complete(s)
	}
}

func (f Funcs) OnError(path string, err error) {
	if f.Error != nil {
		f.Error(path, err)
	}
}
