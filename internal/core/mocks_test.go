package core

import (
	"context"
	"sync"

	"radiometa/pkg/artwork"
)

// fakeCascade answers by title. A gate, when set, holds the answer until
// the channel is closed.
type fakeCascade struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string]artwork.Result
	gates   map[string]chan struct{}
	err     error
}

func newFakeCascade() *fakeCascade {
	return &fakeCascade{
		calls:   make(map[string]int),
		results: make(map[string]artwork.Result),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeCascade) found(title, url, source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[title] = artwork.Result{Found: true, ArtworkURL: url, Source: source}
}

func (f *fakeCascade) gate(title string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[title] = ch
	return ch
}

func (f *fakeCascade) callCount(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[title]
}

func (f *fakeCascade) Resolve(ctx context.Context, q artwork.Query) (artwork.Result, error) {
	f.mu.Lock()
	f.calls[q.Title]++
	res := f.results[q.Title]
	gate := f.gates[q.Title]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return artwork.Result{}, ctx.Err()
		}
	}
	return res, err
}

type fakeLinks struct {
	link   string
	source string
	err    error
}

func (f *fakeLinks) Resolve(_ context.Context, _ artwork.Query) (string, string, error) {
	return f.link, f.source, f.err
}

type artworkCall struct {
	trackID string
	url     string
}

// fakePresenter records every display instruction.
type fakePresenter struct {
	mu          sync.Mutex
	shown       []TrackRecord
	artwork     []artworkCall
	cleared     []string
	unavailable []error
}

func (f *fakePresenter) ShowTrack(rec TrackRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, rec)
}

func (f *fakePresenter) ShowUnavailable(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable = append(f.unavailable, err)
}

func (f *fakePresenter) UpdateArtwork(_ context.Context, trackID, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artwork = append(f.artwork, artworkCall{trackID: trackID, url: url})
}

func (f *fakePresenter) ClearArtwork(trackID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, trackID)
}

func (f *fakePresenter) snapshot() ([]TrackRecord, []artworkCall, []string, []error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TrackRecord(nil), f.shown...),
		append([]artworkCall(nil), f.artwork...),
		append([]string(nil), f.cleared...),
		append([]error(nil), f.unavailable...)
}
