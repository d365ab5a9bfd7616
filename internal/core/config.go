package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultPollInterval is how often the station endpoint is polled.
	DefaultPollInterval = 5 * time.Second
	// DefaultFetchTimeout bounds a single station or provider request.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultCrossfadeDuration is the artwork fade time.
	DefaultCrossfadeDuration = 700 * time.Millisecond
	// DefaultRefreshLimitPerMinute caps manual refreshes per client.
	DefaultRefreshLimitPerMinute = 6
	// DefaultHistorySize is the number of recently played tracks kept.
	DefaultHistorySize = 200
	// DefaultImageProxy is the passthrough used for cross-origin artwork.
	DefaultImageProxy = "https://images.weserv.nl/"
	// DefaultUserAgent identifies the service to metadata providers.
	DefaultUserAgent = "radiometa/1.0 (+https://github.com/radiometa/radiometa)"
)

// Release link resolvers that may appear in LinksConfig.ReleaseLinkOrder.
const (
	LinkResolverDiscogs  = "discogs"
	LinkResolverBandcamp = "bandcamp"
)

type Config struct {
	Station   StationConfig
	Providers ProvidersConfig
	Links     LinksConfig
	Presenter PresenterConfig
	Server    ServerConfig
	Log       LogConfig
	App       AppConfig
}

type StationConfig struct {
	MetadataURL  string
	StreamURL    string
	PollInterval time.Duration
	FetchTimeout time.Duration
}

type ProvidersConfig struct {
	UserAgent           string
	RequestTimeout      time.Duration
	ImageProxy          string
	MusicBrainzEnabled  bool
	DiscogsEnabled      bool
	DiscogsToken        string
	LastFMAPIKey        string
	SpotifyClientID     string
	SpotifyClientSecret string
	ImageSearchEnabled  bool
}

type LinksConfig struct {
	UpgradeEnabled   bool
	ReleaseLinkOrder []string
}

type PresenterConfig struct {
	CrossfadeDuration time.Duration
	NormalSize        int
	ReducedSize       int
	LayoutBuffer      int
	PanelTop          int
	FooterTop         int
	AccentEnabled     bool
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language                 string
	RefreshLimitPerMinute    int
	HistorySize              int
	HistoryFalsePositiveRate float64
}

func DefaultConfig() *Config {
	return &Config{
		Station: StationConfig{
			PollInterval: DefaultPollInterval,
			FetchTimeout: DefaultFetchTimeout,
		},
		Providers: ProvidersConfig{
			UserAgent:          DefaultUserAgent,
			RequestTimeout:     DefaultFetchTimeout,
			ImageProxy:         DefaultImageProxy,
			MusicBrainzEnabled: true,
			ImageSearchEnabled: true,
		},
		Links: LinksConfig{
			UpgradeEnabled:   true,
			ReleaseLinkOrder: []string{LinkResolverDiscogs, LinkResolverBandcamp},
		},
		Presenter: PresenterConfig{
			CrossfadeDuration: DefaultCrossfadeDuration,
			NormalSize:        300,
			ReducedSize:       150,
			LayoutBuffer:      4,
			AccentEnabled:     true,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:                 "en",
			RefreshLimitPerMinute:    DefaultRefreshLimitPerMinute,
			HistorySize:              DefaultHistorySize,
			HistoryFalsePositiveRate: 0.001,
		},
	}
}

// Validate reports the first configuration problem that prevents startup.
// Only the station endpoints are mandatory; every provider degrades to
// disabled when its credentials are missing.
func (c *Config) Validate() error {
	if err := validateEndpoint("station-metadata-url", c.Station.MetadataURL); err != nil {
		return err
	}
	if err := validateEndpoint("station-stream-url", c.Station.StreamURL); err != nil {
		return err
	}
	if c.Station.PollInterval <= 0 {
		return &ConfigError{Field: "poll-interval", Reason: "must be positive"}
	}
	if c.Station.FetchTimeout <= 0 {
		return &ConfigError{Field: "fetch-timeout", Reason: "must be positive"}
	}
	for _, name := range c.Links.ReleaseLinkOrder {
		if name != LinkResolverDiscogs && name != LinkResolverBandcamp {
			return &ConfigError{
				Field:  "release-link-order",
				Reason: fmt.Sprintf("unknown resolver %q (want %s or %s)", name, LinkResolverDiscogs, LinkResolverBandcamp),
			}
		}
	}
	return nil
}

func validateEndpoint(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &ConfigError{Field: field, Reason: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Field: field, Reason: "is not a valid URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: field, Reason: "must be an http(s) URL"}
	}
	if u.Host == "" {
		return &ConfigError{Field: field, Reason: "has no host"}
	}
	return nil
}

// ParseLinkOrder splits a comma separated resolver list, dropping blanks.
func ParseLinkOrder(raw string) []string {
	var order []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			order = append(order, part)
		}
	}
	return order
}
