package loop

import (
	"sync"
	"time"
)

// Stats is a snapshot of loop progress for the status endpoint and logs.
type Stats struct {
	Cursor        string    `json:"cursor"`
	LastTickAt    time.Time `json:"last_tick_at"`
	LastError     string    `json:"last_error,omitempty"`
	TicksRun      int64     `json:"ticks_run"`
	MentionsSeen  int64     `json:"mentions_seen"`
	Responded     int64     `json:"responded"`
	Ignored       int64     `json:"ignored"`
	Stopped       int64     `json:"stopped"`
	SkippedSeen   int64     `json:"skipped_seen"`
	SkippedSelf   int64     `json:"skipped_self"`
	DispatchFails int64     `json:"dispatch_failures"`
}

// statsTracker accumulates Stats behind a mutex. The loop itself is
// single-threaded; the lock exists for the status endpoint reading
// concurrently.
type statsTracker struct {
	mu    sync.Mutex
	stats Stats
}

func (t *statsTracker) update(fn func(*Stats)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.stats)
}

// Snapshot returns a copy of the current stats.
func (t *statsTracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
