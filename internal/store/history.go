package store

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Play is one entry of the play history.
type Play struct {
	Key        string    `json:"-"`
	Artist     string    `json:"artist"`
	Title      string    `json:"title"`
	ArtworkURL string    `json:"artworkUrl,omitempty"`
	FirstHeard bool      `json:"firstHeard"`
	PlayedAt   time.Time `json:"playedAt"`
	Plays      int       `json:"plays"`
}

// History keeps the most recently played tracks in an LRU and remembers
// every key heard since startup in a Bloom filter, so the first-heard flag
// survives eviction from the LRU.
type History struct {
	lru                    *lru.Cache[string, *Play]
	heard                  *bloom.BloomFilter
	mutex                  sync.RWMutex
	maxTracks              int
	bloomFalsePositiveRate float64
}

// NewHistory creates a history holding up to maxTracks entries.
func NewHistory(maxTracks int, bloomFalsePositiveRate float64) *History {
	if maxTracks <= 0 || maxTracks > int(^uint(0)>>1) {
		panic("maxTracks value out of range for uint conversion")
	}

	lruCache, _ := lru.New[string, *Play](maxTracks)

	return &History{
		lru:                    lruCache,
		heard:                  bloom.NewWithEstimates(uint(maxTracks), bloomFalsePositiveRate),
		maxTracks:              maxTracks,
		bloomFalsePositiveRate: bloomFalsePositiveRate,
	}
}

// Record registers a play of p.Key and returns the stored entry. A key
// already in the history is moved to the front and its play count bumped.
func (h *History) Record(p Play) Play {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if p.PlayedAt.IsZero() {
		p.PlayedAt = time.Now()
	}

	if existing, ok := h.lru.Get(p.Key); ok {
		existing.Plays++
		existing.PlayedAt = p.PlayedAt
		existing.FirstHeard = false
		if p.ArtworkURL != "" {
			existing.ArtworkURL = p.ArtworkURL
		}
		return *existing
	}

	p.FirstHeard = !h.heard.TestString(p.Key)
	p.Plays = 1
	h.heard.AddString(p.Key)

	entry := p
	h.lru.Add(p.Key, &entry)

	return entry
}

// Annotate attaches artwork to a recorded play without changing its
// position. Unknown keys are ignored.
func (h *History) Annotate(key, artworkURL string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if existing, ok := h.lru.Peek(key); ok {
		existing.ArtworkURL = artworkURL
	}
}

// Recent returns up to limit plays, newest first. A non-positive limit
// returns the whole history.
func (h *History) Recent(limit int) []Play {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	keys := h.lru.Keys()
	if limit <= 0 || limit > len(keys) {
		limit = len(keys)
	}

	plays := make([]Play, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(plays) < limit; i-- {
		if p, ok := h.lru.Peek(keys[i]); ok {
			plays = append(plays, *p)
		}
	}

	return plays
}

// Seen reports whether key was heard since startup. Like any Bloom filter
// it may report false positives, never false negatives.
func (h *History) Seen(key string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.heard.TestString(key)
}

// Len returns the number of plays currently held.
func (h *History) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.lru.Len()
}

// Clear forgets every play, including the first-heard memory.
func (h *History) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.heard = bloom.NewWithEstimates(uint(h.maxTracks), h.bloomFalsePositiveRate)
	h.lru.Purge()
}
