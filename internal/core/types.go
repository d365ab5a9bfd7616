package core

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"

	"radiometa/internal/store"
	"radiometa/pkg/artwork"
	"radiometa/pkg/text"
)

// TrackRecord is the resolved "now playing" entity. A record is never edited
// in place: enrichment returns a modified copy carrying the same ID.
type TrackRecord struct {
	ID          string            `json:"id"`
	RawTitle    string            `json:"rawTitle"`
	Artist      string            `json:"artist,omitempty"`
	HasArtist   bool              `json:"hasArtist"`
	Title       string            `json:"title"`
	FullTitle   string            `json:"fullTitle"`
	Album       string            `json:"album,omitempty"`
	Year        string            `json:"year,omitempty"`
	Label       string            `json:"label,omitempty"`
	ArtworkURL  string            `json:"artworkUrl,omitempty"`
	Source      string            `json:"source,omitempty"`
	SearchLinks map[string]string `json:"searchLinks"`
	ReleaseLink string            `json:"releaseLink,omitempty"`
	LinkSource  string            `json:"linkSource,omitempty"`
	FetchedAt   time.Time         `json:"fetchedAt"`
}

// NewTrackRecord builds a fresh record for a raw station title.
func NewTrackRecord(raw string, parsed text.Title, fetchedAt time.Time) TrackRecord {
	rec := TrackRecord{
		ID:        uuid.NewString(),
		RawTitle:  raw,
		Artist:    parsed.Artist,
		HasArtist: parsed.HasArtist,
		Title:     parsed.Title,
		FullTitle: parsed.FullTitle,
		FetchedAt: fetchedAt,
	}
	rec.SearchLinks = artwork.SearchLinks(rec.Query())
	if rec.FullTitle != "" {
		rec.ReleaseLink = artwork.BandcampSearchURL(rec.Query())
	}
	return rec
}

// DisplayArtist returns the artist or the "Unknown Artist" sentinel.
func (r TrackRecord) DisplayArtist() string {
	if !r.HasArtist {
		return text.UnknownArtist
	}
	return r.Artist
}

// Key is the cache key of the record, artist and title joined by
// text.KeySeparator.
func (r TrackRecord) Key() string {
	return r.DisplayArtist() + text.KeySeparator + r.Title
}

// Lookupable reports whether there is a title to look up.
func (r TrackRecord) Lookupable() bool {
	return r.Title != ""
}

// WithLookup returns a copy of r enriched with a lookup result.
func (r TrackRecord) WithLookup(res LookupResult) TrackRecord {
	enriched := r
	enriched.SearchLinks = maps.Clone(r.SearchLinks)
	if !res.Found {
		return enriched
	}

	enriched.ArtworkURL = res.ArtworkURL
	enriched.Source = res.Source
	if res.Album != "" {
		enriched.Album = res.Album
	}
	if res.Year != "" {
		enriched.Year = res.Year
	}
	if res.Label != "" {
		enriched.Label = res.Label
	}
	return enriched
}

// WithReleaseLink returns a copy of r pointing at a concrete release page.
func (r TrackRecord) WithReleaseLink(link, source string) TrackRecord {
	upgraded := r
	upgraded.SearchLinks = maps.Clone(r.SearchLinks)
	upgraded.ReleaseLink = link
	upgraded.LinkSource = source
	return upgraded
}

// LookupResult is the cached outcome of one cascade run. A zero value with
// Found unset is an explicit "no artwork" entry.
type LookupResult struct {
	Found      bool   `json:"found"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
	Source     string `json:"source,omitempty"`
	Album      string `json:"album,omitempty"`
	Year       string `json:"year,omitempty"`
	Label      string `json:"label,omitempty"`
}

// StationEvent is one poll outcome. Available is false when the fetch or
// decode failed; Err carries the classified cause.
type StationEvent struct {
	RawTitle  string
	Available bool
	Err       error
	At        time.Time
}

// Presenter receives display updates from the pipeline. Artwork calls carry
// the track ID so late work for an old track can be discarded.
type Presenter interface {
	ShowTrack(rec TrackRecord)
	ShowUnavailable(err error)
	UpdateArtwork(ctx context.Context, trackID, url string)
	ClearArtwork(trackID string)
}

// ArtworkCascade resolves artwork for a query.
type ArtworkCascade interface {
	Resolve(ctx context.Context, q artwork.Query) (artwork.Result, error)
}

// ReleaseLinkResolver upgrades a search link to a release page. The link
// is always usable, even alongside an error.
type ReleaseLinkResolver interface {
	Resolve(ctx context.Context, q artwork.Query) (link, source string, err error)
}

// PlayRecorder keeps the play history.
type PlayRecorder interface {
	Record(p store.Play) store.Play
	Annotate(key, artworkURL string)
	Len() int
}

// MetricsRecorder receives pipeline measurements.
type MetricsRecorder interface {
	RecordPoll(status string)
	RecordLookup(source string, duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordProviderError(provider string)
	SetCacheSize(size int)
	SetHistorySize(size int)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) RecordPoll(string)                  {}
func (NopMetrics) RecordLookup(string, time.Duration) {}
func (NopMetrics) RecordCacheHit()                    {}
func (NopMetrics) RecordCacheMiss()                   {}
func (NopMetrics) RecordProviderError(string)         {}
func (NopMetrics) SetCacheSize(int)                   {}
func (NopMetrics) SetHistorySize(int)                 {}
