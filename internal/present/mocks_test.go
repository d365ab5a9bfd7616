package present

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errLoadFailed = errors.New("load failed")

// fakeLoader succeeds for every URL except those marked failing. A gate
// holds a load until its channel is closed.
type fakeLoader struct {
	mu      sync.Mutex
	calls   map[string]int
	failing map[string]bool
	gates   map[string]chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		calls:   make(map[string]int),
		failing: make(map[string]bool),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeLoader) fail(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[url] = true
}

func (f *fakeLoader) gate(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[url] = ch
	return ch
}

func (f *fakeLoader) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeLoader) Load(ctx context.Context, url string) (Image, error) {
	f.mu.Lock()
	f.calls[url]++
	gate := f.gates[url]
	failing := f.failing[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Image{}, ctx.Err()
		}
	}
	if failing {
		return Image{}, errLoadFailed
	}
	return Image{URL: url, Width: 500, Height: 500, Accent: "#336699"}, nil
}

type crossfadeCall struct {
	from     string
	to       string
	duration time.Duration
	accent   string
}

// recordingDisplay records instructions and keeps a Board for state.
type recordingDisplay struct {
	*Board

	mu         sync.Mutex
	crossfades []crossfadeCall
	clears     int
	sizes      []Size
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{Board: NewBoard()}
}

func (d *recordingDisplay) Crossfade(from, to string, duration time.Duration, accent string) {
	d.mu.Lock()
	d.crossfades = append(d.crossfades, crossfadeCall{from: from, to: to, duration: duration, accent: accent})
	d.mu.Unlock()
	d.Board.Crossfade(from, to, duration, accent)
}

func (d *recordingDisplay) ClearArtwork() {
	d.mu.Lock()
	d.clears++
	d.mu.Unlock()
	d.Board.ClearArtwork()
}

func (d *recordingDisplay) SetArtworkSize(size Size) {
	d.mu.Lock()
	d.sizes = append(d.sizes, size)
	d.mu.Unlock()
	d.Board.SetArtworkSize(size)
}

func (d *recordingDisplay) crossfadeCalls() []crossfadeCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]crossfadeCall(nil), d.crossfades...)
}

func (d *recordingDisplay) clearCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

func (d *recordingDisplay) lastSize() (Size, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sizes) == 0 {
		return 0, false
	}
	return d.sizes[len(d.sizes)-1], true
}
