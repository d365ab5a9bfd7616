package present

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"net/http"
	"time"

	// Register decoders for the formats providers serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/EdlinOrg/prominentcolor"
	_ "golang.org/x/image/webp"
)

const (
	// maxImageSize caps downloaded artwork.
	maxImageSize = 10 << 20
	// paletteSize is the number of colour clusters extracted from artwork.
	paletteSize = 5
)

// ErrEmptyImage is returned for artwork without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Image is a successfully loaded artwork.
type Image struct {
	URL    string
	Format string
	Width  int
	Height int
	Accent string // "#rrggbb", empty when not computed.
}

// ImageLoader fetches and decodes artwork before it is shown.
type ImageLoader interface {
	Load(ctx context.Context, url string) (Image, error)
}

// HTTPImageLoader downloads and decodes artwork, optionally deriving an
// accent colour from its palette.
type HTTPImageLoader struct {
	client    *http.Client
	userAgent string
	accent    bool
}

// NewHTTPImageLoader creates a loader with a bounded request timeout.
func NewHTTPImageLoader(userAgent string, timeout time.Duration, accent bool) *HTTPImageLoader {
	return &HTTPImageLoader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		accent:    accent,
	}
}

// Load fetches url and decodes it. Any transport or decode failure is an
// error; the caller keeps showing what it had.
func (l *HTTPImageLoader) Load(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode artwork: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return Image{}, ErrEmptyImage
	}

	loaded := Image{
		URL:    url,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if l.accent {
		loaded.Accent = accentColor(img)
	}

	return loaded, nil
}

// accentColor picks the most vivid mid-brightness colour of the palette,
// falling back to the dominant one.
func accentColor(img image.Image) string {
	colors, err := prominentcolor.KmeansWithAll(paletteSize, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(colors) == 0 {
		return ""
	}

	best := colors[0]
	bestScore := -1.0
	for _, c := range colors {
		r := float64(c.Color.R) / 255.0
		g := float64(c.Color.G) / 255.0
		b := float64(c.Color.B) / 255.0

		brightness := math.Max(math.Max(r, g), b)
		if brightness == 0 {
			continue
		}
		sat := (brightness - math.Min(math.Min(r, g), b)) / brightness

		score := sat * (1.0 - math.Abs(brightness-0.6))
		if score > bestScore {
			best, bestScore = c, score
		}
	}

	return fmt.Sprintf("#%02x%02x%02x", best.Color.R, best.Color.G, best.Color.B)
}
