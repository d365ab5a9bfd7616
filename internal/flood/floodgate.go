// Package flood rate limits manual refresh requests per client.
package flood

import (
	"sync"
	"time"
)

const (
	// windowDuration is the fixed sliding window (always 1 minute)
	windowDuration = 60 * time.Second
	// cleanupInterval is how often expired entries are swept
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long an idle client entry is kept
	idleTimeout = 10 * time.Minute
)

// Floodgate allows at most limitPerMinute requests per client in any
// sliding one minute window. A non-positive limit disables the gate.
type Floodgate struct {
	limitPerMinute int
	entries        map[string]*clientEntry
	mutex          sync.RWMutex
	now            func() time.Time
	stopCleanup    chan struct{}
	stopOnce       sync.Once
}

// clientEntry tracks request timestamps for one client.
type clientEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a Floodgate and starts its background cleanup.
func New(limitPerMinute int) *Floodgate {
	return newWithClock(limitPerMinute, time.Now)
}

func newWithClock(limitPerMinute int, now func() time.Time) *Floodgate {
	fg := &Floodgate{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*clientEntry),
		now:            now,
		stopCleanup:    make(chan struct{}),
	}

	go fg.cleanup()

	return fg
}

// Stop stops the background cleanup goroutine. It is safe to call twice.
func (fg *Floodgate) Stop() {
	fg.stopOnce.Do(func() {
		close(fg.stopCleanup)
	})
}

// Allow records a request from client and reports whether it is within
// the limit. Rejected requests do not extend the window.
func (fg *Floodgate) Allow(client string) bool {
	if fg.limitPerMinute <= 0 {
		return true
	}

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	now := fg.now()

	entry, exists := fg.entries[client]
	if !exists {
		entry = &clientEntry{
			timestamps: make([]time.Time, 0, fg.limitPerMinute+1),
		}
		fg.entries[client] = entry
	}
	entry.lastSeen = now

	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= fg.limitPerMinute {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

func (fg *Floodgate) cleanup() {
	fg.performCleanup()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.performCleanup()
		case <-fg.stopCleanup:
			return
		}
	}
}

// performCleanup removes clients idle for longer than idleTimeout.
func (fg *Floodgate) performCleanup() {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	cutoff := fg.now().Add(-idleTimeout)
	for client, entry := range fg.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(fg.entries, client)
		}
	}
}

// GetStats returns floodgate statistics for the status API.
func (fg *Floodgate) GetStats() Stats {
	fg.mutex.RLock()
	defer fg.mutex.RUnlock()

	return Stats{
		ActiveClients:  len(fg.entries),
		LimitPerMinute: fg.limitPerMinute,
		WindowSeconds:  int(windowDuration.Seconds()),
	}
}

// Stats contains floodgate statistics.
type Stats struct {
	ActiveClients  int `json:"active_clients"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}
