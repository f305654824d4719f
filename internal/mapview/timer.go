package mapview

import (
	"sync"
	"time"
)

// Debouncer runs a callback after a quiet period. Each Trigger cancels any
// pending run and schedules a new one, so only the most recent call fires.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Trigger schedules fn to run after d, replacing any pending run.
func (db *Debouncer) Trigger(d time.Duration, fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(d, fn)
}

// Stop cancels any pending run.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
