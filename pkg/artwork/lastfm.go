package artwork

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// LastFMName identifies the Last.fm provider.
	LastFMName = "lastfm"
	// lastFMBaseURL is the Last.fm API root.
	lastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"
)

// Last.fm API error codes.
const (
	lastFMErrInvalidParams = 6
	lastFMErrInvalidAPIKey = 10
	lastFMErrRateLimited   = 29
)

var (
	// ErrLastFMInvalidAPIKey is returned when Last.fm rejects the API key.
	ErrLastFMInvalidAPIKey = errors.New("lastfm: invalid API key")
	// ErrLastFMRateLimited is returned when Last.fm throttles the client.
	ErrLastFMRateLimited = errors.New("lastfm: rate limit exceeded")
)

// LastFMProvider reads album images from track.getInfo.
type LastFMProvider struct {
	client    *http.Client
	apiKey    string
	userAgent string
	baseURL   string
}

// NewLastFMProvider creates a Last.fm provider.
func NewLastFMProvider(apiKey, userAgent string, timeout time.Duration) *LastFMProvider {
	return &LastFMProvider{
		client:    newHTTPClient(timeout),
		apiKey:    apiKey,
		userAgent: userAgent,
		baseURL:   lastFMBaseURL,
	}
}

func (p *LastFMProvider) Name() string {
	return LastFMName
}

// Lookup prefers the last (largest) album image and falls back to the first.
// track.getInfo needs an artist, so artist-less queries never match.
func (p *LastFMProvider) Lookup(ctx context.Context, q Query) (*Result, error) {
	if p.apiKey == "" {
		return nil, errors.New("lastfm API key not configured")
	}
	if !q.HasArtist() || q.Title == "" {
		return nil, ErrNoMatch
	}

	params := url.Values{
		"method":  {"track.getInfo"},
		"artist":  {q.Artist},
		"track":   {q.Title},
		"api_key": {p.apiKey},
		"format":  {"json"},
	}

	body, err := fetchBody(ctx, p.client, p.baseURL+"?"+params.Encode(), "Last.fm", map[string]string{
		"User-Agent": p.userAgent,
		"Accept":     jsonAcceptHeader,
	}, maxAPIReadSize)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.New("lastfm returned invalid JSON")
	}
	if err := lastFMError(body); err != nil {
		return nil, err
	}

	imageURL := pickLastFMImage(gjson.GetBytes(body, "track.album.image").Array())
	if imageURL == "" {
		return nil, ErrNoMatch
	}

	return &Result{
		ArtworkURL: imageURL,
		Album:      gjson.GetBytes(body, "track.album.title").String(),
	}, nil
}

func lastFMError(body []byte) error {
	code := gjson.GetBytes(body, "error")
	if !code.Exists() {
		return nil
	}

	switch code.Int() {
	case lastFMErrInvalidParams:
		return ErrNoMatch
	case lastFMErrInvalidAPIKey:
		return ErrLastFMInvalidAPIKey
	case lastFMErrRateLimited:
		return ErrLastFMRateLimited
	default:
		return fmt.Errorf("lastfm error %d: %s", code.Int(), gjson.GetBytes(body, "message").String())
	}
}

// pickLastFMImage returns the last image's "#text", falling back to the
// first. Only absolute http(s) URLs count.
func pickLastFMImage(images []gjson.Result) string {
	if len(images) == 0 {
		return ""
	}

	candidates := []gjson.Result{images[len(images)-1], images[0]}
	for _, image := range candidates {
		src := image.Map()["#text"].String()
		if strings.HasPrefix(src, "http") {
			return src
		}
	}

	return ""
}
