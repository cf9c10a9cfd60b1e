package cache

import (
	"sync"
	"time"
)

// TimerStore is a process-local, in-memory store for live cleanup timer
// handles. It is intentionally NOT a Store implementation: timer handles are
// not serializable and must never be written to the shared result cache. In
// a multi-process deployment, callbacks for a request must be routed to the
// process that armed its timer; elsewhere a stop is a no-op.
type TimerStore struct {
	mu     sync.Mutex
	timers map[string]timerEntry
}

type timerEntry struct {
	timer     *time.Timer
	expiresAt time.Time
}

func NewTimerStore() *TimerStore {
	return &TimerStore{timers: make(map[string]timerEntry)}
}

// Put stores a timer handle under key with a TTL. The TTL mirrors the timer's
// own deadline so a stale handle cannot outlive it in storage.
func (ts *TimerStore) Put(key string, timer *time.Timer, ttl time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.timers[key] = timerEntry{timer: timer, expiresAt: time.Now().Add(ttl)}
}

// Get returns the live timer handle for key, if any. Expired entries are
// collected lazily.
func (ts *TimerStore) Get(key string) (*time.Timer, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	entry, ok := ts.timers[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(ts.timers, key)
		return nil, false
	}
	return entry.timer, true
}

// Delete removes a timer handle; deleting an absent key is a no-op.
func (ts *TimerStore) Delete(key string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.timers, key)
}

// Len reports the number of stored handles (expired entries included until
// their next Get).
func (ts *TimerStore) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.timers)
}
