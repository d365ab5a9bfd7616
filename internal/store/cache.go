// Package store holds the in-memory state of a running station: resolved
// lookups keyed by track and the recent play history.
package store

import "sync"

// ResultCache is a thread-safe, unbounded map of lookup results. Entries
// live for the lifetime of the process.
type ResultCache[V any] struct {
	entries map[string]V
	mutex   sync.RWMutex
}

// NewResultCache creates an empty cache.
func NewResultCache[V any]() *ResultCache[V] {
	return &ResultCache[V]{
		entries: make(map[string]V),
	}
}

// Get returns the value stored for key.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	value, ok := c.entries[key]
	return value, ok
}

// Put stores value under key. The last write wins.
func (c *ResultCache[V]) Put(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = value
}

// Len returns the number of cached keys.
func (c *ResultCache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ResultCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]V)
}
