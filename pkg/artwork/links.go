package artwork

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/multierr"
)

const (
	// BandcampName identifies the Bandcamp release linker.
	BandcampName = "bandcamp"
	// bandcampSearchURL is the public Bandcamp search page.
	bandcampSearchURL = "https://bandcamp.com/search"
	// discogsSearchURL is the public Discogs search page.
	discogsSearchURL = "https://www.discogs.com/search/"
	// lastFMSiteURL is the public Last.fm site.
	lastFMSiteURL = "https://www.last.fm"
)

var bandcampItemRegex = regexp.MustCompile(`<a[^>]+class="itemurl"[^>]+href="([^"]+)"`)

// SearchLinks builds manual lookup links for a track without any network
// call, so the display always has a fallback action.
func SearchLinks(q Query) map[string]string {
	if q.FullTitle == "" {
		return map[string]string{}
	}

	links := map[string]string{
		DiscogsName:  discogsSearchURL + "?q=" + url.QueryEscape(q.FullTitle) + "&type=release",
		BandcampName: BandcampSearchURL(q),
	}

	if q.HasArtist() && q.Title != "" {
		links[LastFMName] = lastFMSiteURL + "/music/" + url.PathEscape(q.Artist) + "/_/" + url.PathEscape(q.Title)
	} else {
		links[LastFMName] = lastFMSiteURL + "/search?q=" + url.QueryEscape(q.FullTitle)
	}

	return links
}

// BandcampSearchURL is the last-resort release link.
func BandcampSearchURL(q Query) string {
	return bandcampSearchURL + "?q=" + url.QueryEscape(q.FullTitle)
}

// BandcampLinker scrapes the first track hit from Bandcamp search.
type BandcampLinker struct {
	client         *http.Client
	searchURL      string
	passthroughURL string
}

// NewBandcampLinker creates a Bandcamp release linker.
func NewBandcampLinker(timeout time.Duration) *BandcampLinker {
	return &BandcampLinker{
		client:         newHTTPClient(timeout),
		searchURL:      bandcampSearchURL,
		passthroughURL: allOriginsURL,
	}
}

func (l *BandcampLinker) Name() string {
	return BandcampName
}

// ReleaseLink returns the first track result of a Bandcamp search.
func (l *BandcampLinker) ReleaseLink(ctx context.Context, q Query) (string, error) {
	if q.FullTitle == "" {
		return "", ErrNoMatch
	}

	params := url.Values{}
	params.Set("item_type", "t")
	params.Set("q", q.FullTitle)

	page, err := fetchViaPassthrough(ctx, l.client, l.passthroughURL, l.searchURL+"?"+params.Encode(), "Bandcamp")
	if err != nil {
		return "", err
	}

	matches := bandcampItemRegex.FindStringSubmatch(page)
	if len(matches) < 2 || matches[1] == "" {
		return "", ErrNoMatch
	}

	return html.UnescapeString(matches[1]), nil
}

// LinkResolver upgrades the generic search link to a concrete release page
// by asking linkers in a configured order.
type LinkResolver struct {
	linkers []ReleaseLinker
}

// NewLinkResolver creates a resolver over linkers, in order.
func NewLinkResolver(linkers ...ReleaseLinker) *LinkResolver {
	return &LinkResolver{linkers: linkers}
}

// Resolve returns the first linker's answer, or the Bandcamp search URL when
// none of them succeeds. The returned error collects linker failures that
// were not plain misses; the link is always usable.
func (r *LinkResolver) Resolve(ctx context.Context, q Query) (string, string, error) {
	var errs error
	for _, linker := range r.linkers {
		link, err := linker.ReleaseLink(ctx, q)
		if err == nil && link != "" {
			return link, linker.Name(), nil
		}
		if err != nil && !errors.Is(err, ErrNoMatch) {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", linker.Name(), err))
		}
	}
	return BandcampSearchURL(q), "", errs
}
