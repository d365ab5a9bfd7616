package artwork

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// DiscogsName identifies the Discogs provider and release linker.
	DiscogsName = "discogs"
	// discogsAPIBaseURL is the Discogs API root.
	discogsAPIBaseURL = "https://api.discogs.com"
	// discogsSiteURL is the public Discogs site.
	discogsSiteURL = "https://www.discogs.com"
)

var apiReleaseRegex = regexp.MustCompile(`^https?://api\.discogs\.com/releases/`)

// DiscogsProvider searches the Discogs release database. It needs a personal
// access token; without one every lookup fails.
type DiscogsProvider struct {
	client    *http.Client
	token     string
	userAgent string
	baseURL   string
	siteURL   string
}

// NewDiscogsProvider creates a Discogs provider.
func NewDiscogsProvider(token, userAgent string, timeout time.Duration) *DiscogsProvider {
	return &DiscogsProvider{
		client:    newHTTPClient(timeout),
		token:     token,
		userAgent: userAgent,
		baseURL:   discogsAPIBaseURL,
		siteURL:   discogsSiteURL,
	}
}

type discogsSearchResponse struct {
	Results []discogsResult `json:"results"`
}

type discogsResult struct {
	Title       string   `json:"title"`
	Year        string   `json:"year"`
	Label       []string `json:"label"`
	CoverImage  string   `json:"cover_image"`
	URI         string   `json:"uri"`
	ResourceURL string   `json:"resource_url"`
}

func (p *DiscogsProvider) Name() string {
	return DiscogsName
}

// Lookup accepts the first search result with a non-empty cover image.
func (p *DiscogsProvider) Lookup(ctx context.Context, q Query) (*Result, error) {
	results, err := p.search(ctx, q.FullTitle)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.CoverImage == "" {
			continue
		}
		result := &Result{
			ArtworkURL: r.CoverImage,
			Year:       r.Year,
			Album:      releaseName(r.Title),
		}
		if len(r.Label) > 0 {
			result.Label = r.Label[0]
		}
		return result, nil
	}

	return nil, ErrNoMatch
}

// ReleaseLink returns the public page of the first matching release.
func (p *DiscogsProvider) ReleaseLink(ctx context.Context, q Query) (string, error) {
	results, err := p.search(ctx, q.FullTitle)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoMatch
	}

	first := results[0]
	uri := first.URI
	if uri == "" && first.ResourceURL != "" {
		uri = apiReleaseRegex.ReplaceAllString(first.ResourceURL, p.siteURL+"/release/")
	}
	if uri == "" {
		return "", ErrNoMatch
	}

	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		if !strings.HasPrefix(uri, "/") {
			uri = "/" + uri
		}
		uri = p.siteURL + uri
	}

	return uri, nil
}

func (p *DiscogsProvider) search(ctx context.Context, query string) ([]discogsResult, error) {
	if p.token == "" {
		return nil, errors.New("discogs token not configured")
	}
	if query == "" {
		return nil, ErrNoMatch
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "release")
	params.Set("token", p.token)

	var resp discogsSearchResponse
	if err := fetchJSON(ctx, p.client, p.baseURL+"/database/search?"+params.Encode(), "Discogs", p.userAgent, &resp); err != nil {
		return nil, err
	}

	return resp.Results, nil
}

// releaseName drops the "Artist - " prefix Discogs puts on search titles.
func releaseName(title string) string {
	if idx := strings.Index(title, " - "); idx >= 0 {
		return strings.TrimSpace(title[idx+len(" - "):])
	}
	return title
}
