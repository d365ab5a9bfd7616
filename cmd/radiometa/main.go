// Package main provides the radiometa CLI application entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"radiometa/internal/core"
	"radiometa/internal/flood"
	httpserver "radiometa/internal/http"
	"radiometa/internal/i18n"
	"radiometa/internal/present"
	"radiometa/internal/station"
	"radiometa/internal/store"
	"radiometa/pkg/artwork"
	"radiometa/pkg/text"
)

const (
	defaultServerHost = "0.0.0.0"
	envPrefix         = "RADIOMETA"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "radiometa",
	Short: "radiometa - internet radio now playing metadata",
	Long: `radiometa polls an internet radio station's metadata endpoint, parses the
"now playing" title, resolves cover art and release links through a cascade
of music catalogs, and serves the result to a now playing display.`,
	RunE: runRoot,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the station and serve the now playing API",
	RunE:  runServe,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <station title>",
	Short: "Resolve artwork and release link for one title and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")

	flags.String("station-metadata-url", "", "Station now playing metadata endpoint (required)")
	flags.String("station-stream-url", "", "Station audio stream URL (required)")
	flags.Duration("poll-interval", core.DefaultPollInterval, "Metadata poll interval")
	flags.Duration("fetch-timeout", core.DefaultFetchTimeout, "Timeout for one metadata fetch")

	flags.String("user-agent", core.DefaultUserAgent, "User-Agent sent to metadata providers")
	flags.Duration("request-timeout", core.DefaultFetchTimeout, "Timeout for one provider request")
	flags.String("image-proxy", core.DefaultImageProxy, "Image proxy base URL (empty disables proxying)")
	flags.Bool("musicbrainz-enabled", true, "Look up artwork on MusicBrainz / Cover Art Archive")
	flags.Bool("discogs-enabled", false, "Look up artwork and release links on Discogs")
	flags.String("discogs-token", "", "Discogs personal access token")
	flags.String("lastfm-api-key", "", "Last.fm API key (empty disables Last.fm)")
	flags.String("spotify-client-id", "", "Spotify client ID (empty disables Spotify)")
	flags.String("spotify-client-secret", "", "Spotify client secret")
	flags.Bool("image-search-enabled", true, "Fall back to a web image search")

	flags.Bool("release-link-upgrade", true, "Upgrade the search link to a concrete release page")
	flags.String("release-link-order", strings.Join([]string{core.LinkResolverDiscogs, core.LinkResolverBandcamp}, ","),
		"Comma separated release link resolvers, in order")

	flags.Duration("crossfade-duration", core.DefaultCrossfadeDuration, "Artwork crossfade duration")
	flags.Int("artwork-size", 300, "Normal artwork size in pixels")
	flags.Int("artwork-reduced-size", 150, "Reduced artwork size in pixels")
	flags.Int("layout-buffer", 4, "Minimum gap between artwork and footer in pixels")
	flags.Int("panel-top", 0, "Initial info panel top offset in pixels")
	flags.Int("footer-top", 0, "Initial footer top offset in pixels (0 means unmeasured)")
	flags.Bool("accent-color", true, "Derive an accent colour from the artwork")

	flags.String("server-host", defaultServerHost, "HTTP server host")
	flags.Int("server-port", 8080, "HTTP server port")

	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	flags.String("language", i18n.DefaultLanguage, fmt.Sprintf("Display language (%s)", supportedLangs))
	flags.Int("refresh-limit-per-minute", core.DefaultRefreshLimitPerMinute, "Maximum manual refreshes per client per minute (0 disables)")
	flags.Int("history-size", core.DefaultHistorySize, "Number of recently played tracks kept")
	flags.Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(serveCmd, lookupCmd)
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureStation(cfg)
	configureProviders(cfg)
	configureLinks(cfg)
	configurePresenter(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureStation(cfg *core.Config) {
	cfg.Station.MetadataURL = viper.GetString("station-metadata-url")
	cfg.Station.StreamURL = viper.GetString("station-stream-url")
	cfg.Station.PollInterval = viper.GetDuration("poll-interval")
	cfg.Station.FetchTimeout = viper.GetDuration("fetch-timeout")
}

func configureProviders(cfg *core.Config) {
	cfg.Providers.UserAgent = viper.GetString("user-agent")
	if cfg.Providers.UserAgent == "" {
		cfg.Providers.UserAgent = core.DefaultUserAgent
	}
	cfg.Providers.RequestTimeout = viper.GetDuration("request-timeout")
	if cfg.Providers.RequestTimeout <= 0 {
		cfg.Providers.RequestTimeout = core.DefaultFetchTimeout
	}
	cfg.Providers.ImageProxy = viper.GetString("image-proxy")
	cfg.Providers.MusicBrainzEnabled = viper.GetBool("musicbrainz-enabled")
	cfg.Providers.DiscogsEnabled = viper.GetBool("discogs-enabled")
	cfg.Providers.DiscogsToken = viper.GetString("discogs-token")
	cfg.Providers.LastFMAPIKey = viper.GetString("lastfm-api-key")
	cfg.Providers.SpotifyClientID = viper.GetString("spotify-client-id")
	cfg.Providers.SpotifyClientSecret = viper.GetString("spotify-client-secret")
	cfg.Providers.ImageSearchEnabled = viper.GetBool("image-search-enabled")
}

func configureLinks(cfg *core.Config) {
	cfg.Links.UpgradeEnabled = viper.GetBool("release-link-upgrade")
	cfg.Links.ReleaseLinkOrder = core.ParseLinkOrder(viper.GetString("release-link-order"))
}

func configurePresenter(cfg *core.Config) {
	cfg.Presenter.CrossfadeDuration = viper.GetDuration("crossfade-duration")
	cfg.Presenter.NormalSize = viper.GetInt("artwork-size")
	cfg.Presenter.ReducedSize = viper.GetInt("artwork-reduced-size")
	cfg.Presenter.LayoutBuffer = viper.GetInt("layout-buffer")
	cfg.Presenter.PanelTop = viper.GetInt("panel-top")
	cfg.Presenter.FooterTop = viper.GetInt("footer-top")
	cfg.Presenter.AccentEnabled = viper.GetBool("accent-color")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = viper.GetString("log-format")
}

func configureApp(cfg *core.Config) {
	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}
	if !i18n.IsSupported(cfg.App.Language) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(i18n.GetSupportedLanguages(), ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}

	cfg.App.RefreshLimitPerMinute = viper.GetInt("refresh-limit-per-minute")
	if cfg.App.RefreshLimitPerMinute < 0 {
		cfg.App.RefreshLimitPerMinute = core.DefaultRefreshLimitPerMinute
	}

	cfg.App.HistorySize = viper.GetInt("history-size")
	if cfg.App.HistorySize <= 0 {
		fmt.Printf("Warning: Invalid history size (%d), using default (%d)\n",
			cfg.App.HistorySize, core.DefaultHistorySize)
		cfg.App.HistorySize = core.DefaultHistorySize
	}
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if strings.EqualFold(format, "console") || strings.EqualFold(format, "text") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}
	return cmd.Help()
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs := initializeServices(ctx)
	defer svcs.floodgate.Stop()

	logger.Info("Starting radiometa",
		zap.String("metadata_url", config.Station.MetadataURL),
		zap.Duration("poll_interval", config.Station.PollInterval),
		zap.Strings("providers", svcs.cascade.Providers()),
		zap.Strings("release_link_order", config.Links.ReleaseLinkOrder),
		zap.String("language", config.App.Language))

	return runServices(ctx, svcs)
}

type services struct {
	cascade    *artwork.Cascade
	pipeline   *core.Pipeline
	adapter    *present.Adapter
	poller     *station.Poller
	floodgate  *flood.Floodgate
	httpServer *httpserver.Server
}

func initializeServices(ctx context.Context) *services {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httpserver.NewMetrics(registry)

	localizer := i18n.NewLocalizer(config.App.Language)
	history := store.NewHistory(config.App.HistorySize, config.App.HistoryFalsePositiveRate)

	cascade := buildCascade(ctx, &config.Providers)
	resolver := core.NewResolver(cascade, metrics, logger.Named("resolver"))
	links := buildLinkResolver(&config.Providers, config.Links.ReleaseLinkOrder)

	board := present.NewBoard()
	loader := present.NewHTTPImageLoader(config.Providers.UserAgent, config.Providers.RequestTimeout, config.Presenter.AccentEnabled)
	adapter := present.NewAdapter(board, loader, localizer, config.Presenter, logger.Named("present"))

	pipeline := core.NewPipeline(config, resolver, links, adapter, history, metrics, logger.Named("pipeline"))
	poller := station.NewPoller(config.Station, config.Providers.UserAgent, pipeline.HandleEvent, logger.Named("poller"))
	floodgate := flood.New(config.App.RefreshLimitPerMinute)

	httpServer := httpserver.NewServer(&config.Server, httpserver.Dependencies{
		NowPlaying: board,
		History:    history,
		Poller:     poller,
		Limiter:    floodgate,
		Metrics:    metrics,
		Gatherer:   registry,
		Localizer:  localizer,
	}, logger.Named("http"))

	return &services{
		cascade:    cascade,
		pipeline:   pipeline,
		adapter:    adapter,
		poller:     poller,
		floodgate:  floodgate,
		httpServer: httpServer,
	}
}

// buildCascade assembles the artwork providers in lookup order. Providers
// without credentials are left out.
func buildCascade(ctx context.Context, cfg *core.ProvidersConfig) *artwork.Cascade {
	var steps []artwork.Step

	if cfg.MusicBrainzEnabled {
		steps = append(steps, artwork.Step{
			Provider: artwork.NewMusicBrainzProvider(cfg.UserAgent, cfg.RequestTimeout),
		})
	}
	if discogsUsable(cfg) {
		steps = append(steps, artwork.Step{
			Provider: artwork.NewDiscogsProvider(cfg.DiscogsToken, cfg.UserAgent, cfg.RequestTimeout),
			Proxy:    true,
		})
	}
	if cfg.LastFMAPIKey != "" {
		steps = append(steps, artwork.Step{
			Provider: artwork.NewLastFMProvider(cfg.LastFMAPIKey, cfg.UserAgent, cfg.RequestTimeout),
			Proxy:    true,
		})
	}
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		steps = append(steps, artwork.Step{
			Provider: artwork.NewSpotifyProvider(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.RequestTimeout),
			Proxy:    true,
		})
	}
	if cfg.ImageSearchEnabled {
		steps = append(steps, artwork.Step{
			Provider: artwork.NewImageSearchProvider(cfg.RequestTimeout),
			Proxy:    true,
		})
	}

	return artwork.NewCascade(artwork.NewImageProxy(cfg.ImageProxy), steps...)
}

// buildLinkResolver maps the configured order onto release linkers. An
// unusable resolver is skipped; the Bandcamp search URL remains the fallback.
func buildLinkResolver(cfg *core.ProvidersConfig, order []string) *artwork.LinkResolver {
	var linkers []artwork.ReleaseLinker
	for _, name := range order {
		switch name {
		case core.LinkResolverDiscogs:
			if discogsUsable(cfg) {
				linkers = append(linkers, artwork.NewDiscogsProvider(cfg.DiscogsToken, cfg.UserAgent, cfg.RequestTimeout))
			}
		case core.LinkResolverBandcamp:
			linkers = append(linkers, artwork.NewBandcampLinker(cfg.RequestTimeout))
		}
	}
	return artwork.NewLinkResolver(linkers...)
}

func discogsUsable(cfg *core.ProvidersConfig) bool {
	return cfg.DiscogsEnabled && cfg.DiscogsToken != ""
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return svcs.poller.Start(gCtx)
	})

	logger.Info("radiometa started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	err := g.Wait()

	svcs.pipeline.Wait()
	svcs.adapter.Wait()

	if err != nil {
		logger.Error("radiometa stopped with error", zap.Error(err))
		return err
	}

	logger.Info("radiometa stopped gracefully")
	return nil
}

func runLookup(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec := core.NewTrackRecord(args[0], text.ParseTitle(args[0]), time.Now())
	if !rec.Lookupable() {
		return fmt.Errorf("no title found in %q", args[0])
	}

	cascade := buildCascade(ctx, &config.Providers)
	resolver := core.NewResolver(cascade, core.NopMetrics{}, logger.Named("resolver"))

	res, err := resolver.Resolve(ctx, rec)
	if err != nil {
		return fmt.Errorf("artwork lookup failed: %w", err)
	}
	if !res.Found {
		logger.Info("No artwork found",
			zap.Error(&core.NotFoundError{Source: strings.Join(cascade.Providers(), ",")}))
	}
	rec = rec.WithLookup(res)

	if config.Links.UpgradeEnabled {
		links := buildLinkResolver(&config.Providers, config.Links.ReleaseLinkOrder)
		link, source, linkErr := links.Resolve(ctx, rec.Query())
		if linkErr != nil {
			logger.Debug("Release link lookup failed", zap.Error(linkErr))
		}
		rec = rec.WithReleaseLink(link, source)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rec)
}
