package artwork

import (
	"context"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// ImageSearchName identifies the image search fallback.
	ImageSearchName = "imagesearch"
	// duckDuckGoURL is the image search page that gets scraped.
	duckDuckGoURL = "https://duckduckgo.com/"
)

// imageTileRegex matches the result thumbnails on the image search page.
var imageTileRegex = regexp.MustCompile(`<img[^>]+src="([^"]+)"[^>]*class="tile--img__img[^"]*"`)

// ImageSearchProvider scrapes the first image tile from a public image search.
// The markup changes without notice; a miss is the normal outcome.
type ImageSearchProvider struct {
	client         *http.Client
	searchURL      string
	passthroughURL string
}

// NewImageSearchProvider creates the image search fallback.
func NewImageSearchProvider(timeout time.Duration) *ImageSearchProvider {
	return &ImageSearchProvider{
		client:         newHTTPClient(timeout),
		searchURL:      duckDuckGoURL,
		passthroughURL: allOriginsURL,
	}
}

func (p *ImageSearchProvider) Name() string {
	return ImageSearchName
}

// Lookup searches for "<artist> <title> album cover" and returns the first tile.
func (p *ImageSearchProvider) Lookup(ctx context.Context, q Query) (*Result, error) {
	if q.Title == "" {
		return nil, ErrNoMatch
	}

	params := url.Values{}
	params.Set("q", q.SearchTerms()+" album cover")
	params.Set("iax", "images")
	params.Set("ia", "images")

	page, err := fetchViaPassthrough(ctx, p.client, p.passthroughURL, p.searchURL+"?"+params.Encode(), "image search")
	if err != nil {
		return nil, err
	}

	imageURL := extractImageTile(page)
	if imageURL == "" {
		return nil, ErrNoMatch
	}

	return &Result{ArtworkURL: imageURL}, nil
}

func extractImageTile(page string) string {
	matches := imageTileRegex.FindStringSubmatch(page)
	if len(matches) < 2 {
		return ""
	}

	src := html.UnescapeString(matches[1])
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return ""
	}

	return src
}
