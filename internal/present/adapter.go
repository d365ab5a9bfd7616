// Package present drives the now playing display: track text, artwork
// crossfades and artwork layout.
package present

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"radiometa/internal/core"
	"radiometa/internal/i18n"
)

// State is the artwork state of the adapter.
type State int

const (
	// StateIdle shows no artwork.
	StateIdle State = iota
	// StateShowing shows one settled artwork.
	StateShowing
	// StateTransitioning is loading a new artwork while the old one stays up.
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShowing:
		return "showing"
	case StateTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// linkOrder fixes the order of search links on the display.
var linkOrder = map[string]int{"discogs": 0, "lastfm": 1, "bandcamp": 2}

// Adapter implements core.Presenter on top of a Display. Artwork changes
// go through a crossfade state machine: the new image is loaded first and
// only then faded in, so a failed load never blanks the display.
type Adapter struct {
	display   Display
	loader    ImageLoader
	localizer *i18n.Localizer
	config    core.PresenterConfig
	logger    *zap.Logger

	mutex      sync.Mutex
	state      State
	shown      string
	target     string
	generation uint64
	trackID    string
	viewport   Viewport

	wg sync.WaitGroup
}

// NewAdapter creates an idle adapter.
func NewAdapter(
	display Display,
	loader ImageLoader,
	localizer *i18n.Localizer,
	config core.PresenterConfig,
	logger *zap.Logger,
) *Adapter {
	return &Adapter{
		display:   display,
		loader:    loader,
		localizer: localizer,
		config:    config,
		logger:    logger,
		viewport:  Viewport{PanelTop: config.PanelTop, FooterTop: config.FooterTop},
	}
}

// ShowTrack renders the text of rec. A new track ID supersedes any
// transition started for the previous track; the old artwork stays up
// until the new track's artwork is decided.
func (a *Adapter) ShowTrack(rec core.TrackRecord) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if rec.ID != a.trackID {
		a.trackID = rec.ID
		a.abandonTransition()
	}

	a.display.ShowText(a.trackView(rec))
}

// ShowUnavailable replaces the text with the localized unavailable notice.
// Artwork already on screen is kept.
func (a *Adapter) ShowUnavailable(err error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.trackID = ""
	a.abandonTransition()

	a.logger.Debug("Showing unavailable", zap.String("kind", core.ErrorKind(err)))
	a.display.ShowUnavailable(a.localizer.T("track.unavailable"))
}

// UpdateArtwork starts a transition to url for trackID. Requests for a
// track that is no longer shown, for the URL already on screen, or for the
// URL already being loaded are ignored.
func (a *Adapter) UpdateArtwork(ctx context.Context, trackID, url string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if trackID != a.trackID || url == "" {
		return
	}

	switch a.state {
	case StateShowing:
		if url == a.shown {
			return
		}
	case StateTransitioning:
		if url == a.target {
			return
		}
		if url == a.shown {
			a.abandonTransition()
			return
		}
	}

	a.generation++
	gen := a.generation
	from := a.shown
	a.state = StateTransitioning
	a.target = url

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.load(ctx, gen, from, url)
	}()
}

// ClearArtwork removes the artwork for trackID, for tracks without any.
func (a *Adapter) ClearArtwork(trackID string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if trackID != a.trackID {
		return
	}

	a.generation++
	if a.state == StateIdle {
		return
	}

	a.state = StateIdle
	a.shown = ""
	a.target = ""
	a.display.ClearArtwork()
	a.relayout()
}

// Resize records a new viewport and refits the artwork.
func (a *Adapter) Resize(v Viewport) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.viewport = v
	a.relayout()
}

// State returns the artwork state with the shown and target URLs.
func (a *Adapter) State() (State, string, string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.state, a.shown, a.target
}

// Wait blocks until every started image load has finished.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

func (a *Adapter) load(ctx context.Context, gen uint64, from, url string) {
	img, err := a.loader.Load(ctx, url)

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if gen != a.generation {
		a.logger.Debug("Dropping superseded artwork", zap.String("url", url))
		return
	}

	if err != nil {
		a.logger.Warn("Artwork failed to load", zap.String("url", url), zap.Error(err))
		a.settle()
		return
	}

	a.state = StateShowing
	a.shown = url
	a.target = ""

	accent := ""
	if a.config.AccentEnabled {
		accent = img.Accent
	}
	a.display.Crossfade(from, url, a.config.CrossfadeDuration, accent)
	a.relayout()
}

// abandonTransition drops a pending load and falls back to the settled
// state. Must be called with the mutex held.
func (a *Adapter) abandonTransition() {
	if a.state != StateTransitioning {
		return
	}
	a.generation++
	a.settle()
}

// settle returns to Showing or Idle depending on what is on screen.
func (a *Adapter) settle() {
	a.target = ""
	if a.shown != "" {
		a.state = StateShowing
		return
	}
	a.state = StateIdle
}

func (a *Adapter) relayout() {
	a.display.SetArtworkSize(FitArtwork(a.viewport, a.config.NormalSize, a.config.ReducedSize, a.config.LayoutBuffer))
}

func (a *Adapter) trackView(rec core.TrackRecord) TrackView {
	view := TrackView{
		ID:     rec.ID,
		Artist: rec.DisplayArtist(),
		Title:  rec.Title,
		Album:  rec.Album,
		Year:   rec.Year,
		Label:  rec.Label,
	}

	if !rec.HasArtist {
		view.Artist = a.localizer.T("track.unknown_artist")
	}
	if rec.Title == "" {
		view.Title = a.localizer.T("track.no_title")
	}

	for name, url := range rec.SearchLinks {
		view.Links = append(view.Links, Link{Name: name, Label: a.localizer.T("link." + name), URL: url})
	}
	sort.Slice(view.Links, func(i, j int) bool {
		return linkOrder[view.Links[i].Name] < linkOrder[view.Links[j].Name]
	})

	if rec.ReleaseLink != "" {
		name := rec.LinkSource
		if name == "" {
			name = "search"
		}
		view.ReleaseLink = &Link{Name: name, Label: a.localizer.T("link.release"), URL: rec.ReleaseLink}
	}

	return view
}
