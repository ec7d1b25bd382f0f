package scan

import "time"

// Progress reports scanning progress.
type Progress struct {
	// RunID identifies the run the snapshot belongs to.
	RunID string
	// Entries is the number of entries visited so far.
	Entries int64
	// Dirs is the number of directories listed so far.
	Dirs int64
	// Matches is the number of entries emitted.
	Matches int64
	// Errors is the count of per-entry errors.
	Errors int64
	// Pending is the number of scheduled tasks not yet finished.
	Pending int64
	// Running reports whether the run still has tasks in flight.
	Running bool
	// Stopped reports whether a stop was requested.
	Stopped bool
	// StartTime is when the scan began.
	StartTime time.Time
	// Duration is elapsed time.
	Duration time.Duration
}

// ItemsPerSecond returns the scan rate.
func (p Progress) ItemsPerSecond() float64 {
	if p.Duration.Seconds() == 0 {
		return 0
	}
	return float64(p.Entries) / p.Duration.Seconds()
}
