package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"radiometa/internal/store"
	"radiometa/pkg/text"
)

// Poll outcome labels.
const (
	PollStatusOK = "ok"
)

// Pipeline owns the current track and turns station events into display
// updates: parse, show, resolve artwork, upgrade the release link.
// Only the resolution for the current track may reach the presenter. A
// failed poll hides the track but keeps it, so the same title after
// recovery is restored instead of counted as a new play.
type Pipeline struct {
	config    *Config
	parser    *text.Parser
	resolver  *Resolver
	links     ReleaseLinkResolver
	presenter Presenter
	history   PlayRecorder
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time

	mutex     sync.RWMutex
	current   *TrackRecord
	resolved  bool
	available bool
	lastErr   error

	wg sync.WaitGroup
}

// NewPipeline wires the pipeline. links and history may be nil.
func NewPipeline(
	config *Config,
	resolver *Resolver,
	links ReleaseLinkResolver,
	presenter Presenter,
	history PlayRecorder,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *Pipeline {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Pipeline{
		config:    config,
		parser:    text.NewParser(),
		resolver:  resolver,
		links:     links,
		presenter: presenter,
		history:   history,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleEvent processes one poll outcome. Events must be delivered one at a
// time; resolutions started here run in the background until ctx is done.
func (p *Pipeline) HandleEvent(ctx context.Context, ev StationEvent) {
	if !ev.Available {
		p.handleUnavailable(ev)
		return
	}
	p.metrics.RecordPoll(PollStatusOK)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	recovered := !p.available
	p.available = true
	p.lastErr = nil

	if p.current != nil && p.current.RawTitle == ev.RawTitle {
		if recovered {
			p.restore(ctx)
		}
		return
	}

	at := ev.At
	if at.IsZero() {
		at = p.now()
	}

	rec := NewTrackRecord(ev.RawTitle, p.parser.Parse(ev.RawTitle), at)
	p.current = &rec
	p.resolved = !rec.Lookupable()

	p.logger.Info("Now playing",
		zap.String("trackID", rec.ID),
		zap.String("artist", rec.DisplayArtist()),
		zap.String("title", rec.Title),
	)

	p.presenter.ShowTrack(rec)

	if !rec.Lookupable() {
		p.presenter.ClearArtwork(rec.ID)
		return
	}

	if p.history != nil {
		p.history.Record(store.Play{
			Key:      rec.Key(),
			Artist:   rec.DisplayArtist(),
			Title:    rec.Title,
			PlayedAt: at,
		})
		p.metrics.SetHistorySize(p.history.Len())
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.enrich(ctx, rec)
	}()
}

func (p *Pipeline) handleUnavailable(ev StationEvent) {
	p.metrics.RecordPoll(ErrorKind(ev.Err))
	p.logger.Warn("Station metadata unavailable", zap.Error(ev.Err))

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.available = false
	p.lastErr = ev.Err
	p.presenter.ShowUnavailable(ev.Err)
}

// restore re-shows the kept track after an outage, including results that
// arrived while the notice was up. Must be called with the mutex held.
func (p *Pipeline) restore(ctx context.Context) {
	rec := *p.current
	p.logger.Info("Station metadata recovered", zap.String("trackID", rec.ID))

	p.presenter.ShowTrack(rec)
	switch {
	case rec.ArtworkURL != "":
		p.presenter.UpdateArtwork(ctx, rec.ID, rec.ArtworkURL)
	case p.resolved:
		p.presenter.ClearArtwork(rec.ID)
	}
}

// enrich resolves artwork and then the release link for rec. Each result is
// applied only if rec is still the current track.
func (p *Pipeline) enrich(ctx context.Context, rec TrackRecord) {
	res, err := p.resolver.Resolve(ctx, rec)
	if err != nil {
		p.logger.Debug("Artwork lookup interrupted", zap.String("trackID", rec.ID), zap.Error(err))
		return
	}

	if !p.applyLookup(ctx, rec.ID, res) {
		return
	}

	if p.links == nil || !p.config.Links.UpgradeEnabled {
		return
	}

	link, source, err := p.links.Resolve(ctx, rec.Query())
	if err != nil {
		p.logger.Debug("Release link lookup failed", zap.String("trackID", rec.ID), zap.Error(err))
	}
	if ctx.Err() != nil {
		return
	}
	p.applyReleaseLink(rec.ID, link, source)
}

func (p *Pipeline) applyLookup(ctx context.Context, trackID string, res LookupResult) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.isCurrent(trackID) {
		p.logger.Debug("Dropping stale artwork result", zap.String("trackID", trackID))
		return false
	}

	enriched := p.current.WithLookup(res)
	p.current = &enriched
	p.resolved = true

	if res.Found && p.history != nil {
		p.history.Annotate(enriched.Key(), res.ArtworkURL)
	}
	if !p.available {
		return true
	}

	p.presenter.ShowTrack(enriched)
	if !res.Found {
		p.presenter.ClearArtwork(trackID)
		return true
	}
	p.presenter.UpdateArtwork(ctx, trackID, res.ArtworkURL)
	return true
}

func (p *Pipeline) applyReleaseLink(trackID, link, source string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.isCurrent(trackID) {
		p.logger.Debug("Dropping stale release link", zap.String("trackID", trackID))
		return
	}
	if link == "" || link == p.current.ReleaseLink {
		return
	}

	upgraded := p.current.WithReleaseLink(link, source)
	p.current = &upgraded
	if p.available {
		p.presenter.ShowTrack(upgraded)
	}
}

// isCurrent must be called with the mutex held.
func (p *Pipeline) isCurrent(trackID string) bool {
	return p.current != nil && p.current.ID == trackID
}

// Current returns the current track. There is none while the station is
// unavailable.
func (p *Pipeline) Current() (TrackRecord, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.current == nil || !p.available {
		return TrackRecord{}, false
	}
	return *p.current, true
}

// Available reports whether the last poll succeeded, and its error if not.
func (p *Pipeline) Available() (bool, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.available, p.lastErr
}

// Wait blocks until every background resolution has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
