// Package artwork resolves cover art and release details for a track through
// an ordered cascade of metadata providers.
package artwork

import (
	"context"
	"errors"
)

// ErrNoMatch is returned by a provider that answered but had nothing usable.
var ErrNoMatch = errors.New("no match")

// Query describes the track being looked up.
type Query struct {
	Artist    string // Empty when the station title carried no artist.
	Title     string // Cleaned track name.
	FullTitle string // Cleaned station title before the artist split.
}

// HasArtist reports whether the query carries an artist.
func (q Query) HasArtist() bool {
	return q.Artist != ""
}

// SearchTerms joins artist and title for free-text search engines.
func (q Query) SearchTerms() string {
	if q.HasArtist() {
		return q.Artist + " " + q.Title
	}
	return q.Title
}

// Result is a provider answer. Album, Year and Label are optional.
type Result struct {
	Found      bool
	ArtworkURL string
	Source     string
	Album      string
	Year       string
	Label      string
}

// Provider looks up artwork for a track.
type Provider interface {
	// Name identifies the provider in results, logs and metrics.
	Name() string

	// Lookup returns a result with a non-empty ArtworkURL, or an error.
	// ErrNoMatch signals a clean negative answer.
	Lookup(ctx context.Context, q Query) (*Result, error)
}

// ReleaseLinker finds a concrete release page for a track.
type ReleaseLinker interface {
	Name() string
	ReleaseLink(ctx context.Context, q Query) (string, error)
}
