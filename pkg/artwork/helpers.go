package artwork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// browserUserAgent is sent to endpoints that serve HTML to browsers only.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// jsonAcceptHeader is the accept header used for API calls.
	jsonAcceptHeader = "application/json"
	// DefaultHTTPTimeout is the per-request timeout for every provider.
	DefaultHTTPTimeout = 10 * time.Second
	// maxHTTPRedirects is the maximum number of HTTP redirects to follow.
	maxHTTPRedirects = 3
	// maxAPIReadSize caps JSON API responses.
	maxAPIReadSize = 512 * 1024
	// maxPageReadSize caps scraped pages wrapped by the passthrough.
	maxPageReadSize = 2 * 1024 * 1024
	// allOriginsURL is the CORS passthrough used to fetch third-party pages.
	allOriginsURL = "https://api.allorigins.win/get"
)

var (
	// ErrTooManyRedirects is returned when too many redirects are encountered.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// newHTTPClient creates a new HTTP client with the given timeout and redirect validation.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxHTTPRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// fetchBody performs a GET and returns the body, limited to maxReadSize.
func fetchBody(
	ctx context.Context,
	client *http.Client,
	reqURL string,
	serviceName string,
	headers map[string]string,
	maxReadSize int64,
) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoMatch
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", serviceName, resp.StatusCode)
	}

	// Read response body (limited to avoid excessive memory use).
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", serviceName, err)
	}

	return body, nil
}

// fetchJSON fetches an API endpoint and decodes its JSON body into dest.
func fetchJSON(
	ctx context.Context,
	client *http.Client,
	reqURL string,
	serviceName string,
	userAgent string,
	dest interface{},
) error {
	body, err := fetchBody(ctx, client, reqURL, serviceName, map[string]string{
		"User-Agent": userAgent,
		"Accept":     jsonAcceptHeader,
	}, maxAPIReadSize)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", serviceName, err)
	}

	return nil
}

// fetchViaPassthrough fetches pageURL through the allorigins passthrough and
// returns the wrapped page from its "contents" field.
func fetchViaPassthrough(
	ctx context.Context,
	client *http.Client,
	passthroughURL string,
	pageURL string,
	serviceName string,
) (string, error) {
	reqURL := passthroughURL + "?url=" + url.QueryEscape(pageURL)

	body, err := fetchBody(ctx, client, reqURL, serviceName, map[string]string{
		"User-Agent": browserUserAgent,
		"Accept":     jsonAcceptHeader,
	}, maxPageReadSize)
	if err != nil {
		return "", err
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%s passthrough returned invalid JSON", serviceName)
	}

	contents := gjson.GetBytes(body, "contents")
	if contents.Type != gjson.String || contents.String() == "" {
		return "", ErrNoMatch
	}

	return contents.String(), nil
}

// probeURL confirms that a resource exists with a HEAD request.
func probeURL(ctx context.Context, client *http.Client, resourceURL, userAgent string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, resourceURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoMatch
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("probe %s returned status %d", resourceURL, resp.StatusCode)
	}

	return nil
}

// yearOf returns the leading year of an ISO-like date.
func yearOf(date string) string {
	const yearLength = 4
	if len(date) < yearLength {
		return ""
	}
	return date[:yearLength]
}
