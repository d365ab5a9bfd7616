package artwork

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"radiometa/pkg/fuzzy"
)

const (
	// SpotifyName identifies the Spotify provider.
	SpotifyName = "spotify"
	// spotifySearchLimit caps candidate tracks per search.
	spotifySearchLimit = 10
	// DefaultSpotifyMatchThreshold is the minimum fuzzy score for a candidate.
	DefaultSpotifyMatchThreshold = 0.75
)

// SpotifyProvider searches the Spotify catalog with app-only client
// credentials and takes the album art of the best matching track.
type SpotifyProvider struct {
	client     *spotify.Client
	normalizer *fuzzy.Normalizer
	threshold  float64
}

// NewSpotifyProvider creates a Spotify provider using the client credentials
// flow. Tokens are fetched lazily and refreshed by the oauth2 transport.
func NewSpotifyProvider(ctx context.Context, clientID, clientSecret string, timeout time.Duration) *SpotifyProvider {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// The token source keeps this context for refreshes; it must carry the
	// timeout-bound client and outlive individual lookups.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClient(timeout))

	return newSpotifyProvider(spotify.New(config.Client(ctx)))
}

func newSpotifyProvider(client *spotify.Client) *SpotifyProvider {
	return &SpotifyProvider{
		client:     client,
		normalizer: fuzzy.NewNormalizer(),
		threshold:  DefaultSpotifyMatchThreshold,
	}
}

func (p *SpotifyProvider) Name() string {
	return SpotifyName
}

// Lookup ranks the search hits by fuzzy match against the query and
// returns the best hit's album image. Spotify lists album images widest first.
func (p *SpotifyProvider) Lookup(ctx context.Context, q Query) (*Result, error) {
	if p.client == nil {
		return nil, errors.New("spotify client not configured")
	}
	if q.Title == "" {
		return nil, ErrNoMatch
	}

	results, err := p.client.Search(ctx, q.SearchTerms(), spotify.SearchTypeTrack, spotify.Limit(spotifySearchLimit))
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, ErrNoMatch
	}

	best, score := p.bestMatch(q, results.Tracks.Tracks)
	if best == nil || score < p.threshold {
		return nil, ErrNoMatch
	}
	if len(best.Album.Images) == 0 || best.Album.Images[0].URL == "" {
		return nil, ErrNoMatch
	}

	return &Result{
		ArtworkURL: best.Album.Images[0].URL,
		Album:      best.Album.Name,
		Year:       yearOf(best.Album.ReleaseDate),
	}, nil
}

func (p *SpotifyProvider) bestMatch(q Query, tracks []spotify.FullTrack) (*spotify.FullTrack, float64) {
	var (
		best      *spotify.FullTrack
		bestScore float64
	)

	for i := range tracks {
		track := &tracks[i]
		names := make([]string, 0, len(track.Artists))
		for _, artist := range track.Artists {
			names = append(names, artist.Name)
		}

		// Score against each credited artist and the joined credit line.
		score := p.normalizer.MatchScore(q.Artist, q.Title, strings.Join(names, ", "), track.Name)
		for _, name := range names {
			score = max(score, p.normalizer.MatchScore(q.Artist, q.Title, name, track.Name))
		}
		if best == nil || score > bestScore {
			best, bestScore = track, score
		}
	}

	return best, bestScore
}
