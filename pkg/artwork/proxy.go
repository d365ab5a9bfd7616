package artwork

import (
	"net/url"
	"regexp"
	"strings"
)

var schemeRegex = regexp.MustCompile(`^https?://`)

// ImageProxy rewrites image URLs through a GET passthrough so the display
// can load them without cross-origin restrictions.
type ImageProxy struct {
	base string
}

// NewImageProxy creates a proxy rewriting onto base. An empty base disables
// rewriting.
func NewImageProxy(base string) *ImageProxy {
	return &ImageProxy{base: strings.TrimSpace(base)}
}

// Rewrite strips the scheme from imageURL and embeds the rest as the url
// query parameter of the proxy. URLs already on the proxy are left alone.
func (p *ImageProxy) Rewrite(imageURL string) string {
	if p == nil || p.base == "" || imageURL == "" || strings.HasPrefix(imageURL, p.base) {
		return imageURL
	}

	target := schemeRegex.ReplaceAllString(imageURL, "")

	sep := "?"
	if strings.Contains(p.base, "?") {
		sep = "&"
	}

	return p.base + sep + "url=" + url.QueryEscape(target)
}
