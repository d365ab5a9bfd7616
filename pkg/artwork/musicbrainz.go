package artwork

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// MusicBrainzName identifies the MusicBrainz provider.
	MusicBrainzName = "musicbrainz"
	// musicBrainzBaseURL is the MusicBrainz web service root.
	musicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	// coverArtBaseURL serves front covers by release MBID.
	coverArtBaseURL = "https://coverartarchive.org"
	// musicBrainzSearchLimit caps releases per search.
	musicBrainzSearchLimit = 10
)

// MusicBrainzProvider searches releases by artist and title and resolves the
// front cover from the Cover Art Archive. Cover Art Archive URLs are served
// with permissive CORS and are not proxied.
type MusicBrainzProvider struct {
	client       *http.Client
	userAgent    string
	baseURL      string
	coverBaseURL string
}

// NewMusicBrainzProvider creates a MusicBrainz provider. MusicBrainz rejects
// anonymous clients, so userAgent should identify the application.
func NewMusicBrainzProvider(userAgent string, timeout time.Duration) *MusicBrainzProvider {
	return &MusicBrainzProvider{
		client:       newHTTPClient(timeout),
		userAgent:    userAgent,
		baseURL:      musicBrainzBaseURL,
		coverBaseURL: coverArtBaseURL,
	}
}

type mbSearchResponse struct {
	Releases []mbRelease `json:"releases"`
}

type mbRelease struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Date      string        `json:"date"`
	LabelInfo []mbLabelInfo `json:"label-info"`
}

type mbLabelInfo struct {
	Label struct {
		Name string `json:"name"`
	} `json:"label"`
}

func (p *MusicBrainzProvider) Name() string {
	return MusicBrainzName
}

// Lookup finds the first release whose title contains the searched title
// and accepts its front cover if the archive has one.
func (p *MusicBrainzProvider) Lookup(ctx context.Context, q Query) (*Result, error) {
	if q.Title == "" {
		return nil, ErrNoMatch
	}

	var resp mbSearchResponse
	if err := fetchJSON(ctx, p.client, p.searchURL(q), "MusicBrainz", p.userAgent, &resp); err != nil {
		return nil, err
	}

	release, ok := firstMatchingRelease(resp.Releases, q.Title)
	if !ok {
		return nil, ErrNoMatch
	}

	coverURL := fmt.Sprintf("%s/release/%s/front-500.jpg", p.coverBaseURL, url.PathEscape(release.ID))
	if err := probeURL(ctx, p.client, coverURL, p.userAgent); err != nil {
		return nil, fmt.Errorf("cover art for release %s: %w", release.ID, err)
	}

	result := &Result{
		ArtworkURL: coverURL,
		Album:      release.Title,
		Year:       yearOf(release.Date),
	}
	if len(release.LabelInfo) > 0 {
		result.Label = release.LabelInfo[0].Label.Name
	}

	return result, nil
}

func (p *MusicBrainzProvider) searchURL(q Query) string {
	query := fmt.Sprintf("release:%q", q.Title)
	if q.HasArtist() {
		query = fmt.Sprintf("artist:%q AND %s", q.Artist, query)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", fmt.Sprint(musicBrainzSearchLimit))

	return p.baseURL + "/release/?" + params.Encode()
}

// firstMatchingRelease guards against irrelevant search hits: the release
// title must contain the searched title, case-insensitively.
func firstMatchingRelease(releases []mbRelease, title string) (mbRelease, bool) {
	want := strings.ToLower(title)
	for _, release := range releases {
		if release.ID == "" {
			continue
		}
		if strings.Contains(strings.ToLower(release.Title), want) {
			return release, true
		}
	}
	return mbRelease{}, false
}
