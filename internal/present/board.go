package present

import (
	"sync"
	"time"
)

// Link is a labelled outbound link.
type Link struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// TrackView is the text part of the display.
type TrackView struct {
	ID          string `json:"id"`
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album,omitempty"`
	Year        string `json:"year,omitempty"`
	Label       string `json:"label,omitempty"`
	Links       []Link `json:"links"`
	ReleaseLink *Link  `json:"releaseLink,omitempty"`
}

// ArtworkView is the artwork part of the display.
type ArtworkView struct {
	URL           string `json:"url,omitempty"`
	PreviousURL   string `json:"previousUrl,omitempty"`
	Accent        string `json:"accent,omitempty"`
	Size          Size   `json:"size"`
	FadeMillis    int64  `json:"fadeMillis,omitempty"`
	TransitionAt  int64  `json:"transitionAt,omitempty"`
	TransitionSeq uint64 `json:"transitionSeq"`
}

// Snapshot is everything a client needs to render the now playing panel.
type Snapshot struct {
	Available bool        `json:"available"`
	Message   string      `json:"message,omitempty"`
	Track     *TrackView  `json:"track,omitempty"`
	Artwork   ArtworkView `json:"artwork"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Display receives rendering instructions from the Adapter.
type Display interface {
	ShowText(view TrackView)
	ShowUnavailable(message string)
	Crossfade(from, to string, duration time.Duration, accent string)
	ClearArtwork()
	SetArtworkSize(size Size)
}

// Board is an in-memory Display whose state is served to clients.
type Board struct {
	mutex    sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{now: time.Now}
}

func (b *Board) ShowText(view TrackView) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.snapshot.Available = true
	b.snapshot.Message = ""
	b.snapshot.Track = &view
	b.snapshot.UpdatedAt = b.now()
}

func (b *Board) ShowUnavailable(message string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.snapshot.Available = false
	b.snapshot.Message = message
	b.snapshot.Track = nil
	b.snapshot.UpdatedAt = b.now()
}

func (b *Board) Crossfade(from, to string, duration time.Duration, accent string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	now := b.now()
	b.snapshot.Artwork.PreviousURL = from
	b.snapshot.Artwork.URL = to
	b.snapshot.Artwork.Accent = accent
	b.snapshot.Artwork.FadeMillis = duration.Milliseconds()
	b.snapshot.Artwork.TransitionAt = now.UnixMilli()
	b.snapshot.Artwork.TransitionSeq++
	b.snapshot.UpdatedAt = now
}

func (b *Board) ClearArtwork() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	size := b.snapshot.Artwork.Size
	seq := b.snapshot.Artwork.TransitionSeq
	b.snapshot.Artwork = ArtworkView{Size: size, TransitionSeq: seq + 1}
	b.snapshot.UpdatedAt = b.now()
}

func (b *Board) SetArtworkSize(size Size) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.snapshot.Artwork.Size == size {
		return
	}
	b.snapshot.Artwork.Size = size
	b.snapshot.UpdatedAt = b.now()
}

// Snapshot returns a copy of the current board. The previous artwork layer
// is dropped once its fade has finished.
func (b *Board) Snapshot() Snapshot {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	snap := b.snapshot
	if art := snap.Artwork; art.PreviousURL != "" && b.now().UnixMilli() >= art.TransitionAt+art.FadeMillis {
		snap.Artwork.PreviousURL = ""
	}
	if snap.Track != nil {
		track := *snap.Track
		track.Links = append([]Link(nil), snap.Track.Links...)
		snap.Track = &track
	}
	return snap
}
