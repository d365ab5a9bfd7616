package station

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"radiometa/internal/core"
)

// maxFeedSize caps the station response body.
const maxFeedSize = 1 << 20

// Handler receives every poll outcome, one at a time.
type Handler func(ctx context.Context, ev core.StationEvent)

// Poller fetches the station metadata endpoint on a fixed interval. At most
// one fetch is outstanding: a tick that fires while a fetch is pending is
// skipped.
type Poller struct {
	url       string
	interval  time.Duration
	timeout   time.Duration
	userAgent string
	client    *http.Client
	handler   Handler
	logger    *zap.Logger

	inFlight atomic.Bool
	ready    atomic.Bool

	runMutex sync.Mutex
	runCtx   context.Context
	wg       sync.WaitGroup
}

// NewPoller creates a poller for the configured station endpoint.
func NewPoller(config core.StationConfig, userAgent string, handler Handler, logger *zap.Logger) *Poller {
	return &Poller{
		url:       config.MetadataURL,
		interval:  config.PollInterval,
		timeout:   config.FetchTimeout,
		userAgent: userAgent,
		client:    &http.Client{Timeout: config.FetchTimeout},
		handler:   handler,
		logger:    logger,
	}
}

// Start polls immediately and then on every interval until ctx is done.
// It waits for the outstanding fetch before returning.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("Starting metadata poller",
		zap.String("url", p.url),
		zap.Duration("interval", p.interval),
		zap.Duration("timeout", p.timeout),
	)

	p.runMutex.Lock()
	p.runCtx = ctx
	p.runMutex.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.trigger(ctx, "start")

	for {
		select {
		case <-ctx.Done():
			p.runMutex.Lock()
			p.runCtx = nil
			p.runMutex.Unlock()

			p.wg.Wait()
			p.logger.Info("Metadata poller stopped")
			return nil
		case <-ticker.C:
			p.trigger(ctx, "tick")
		}
	}
}

// RefreshNow runs one fetch outside the schedule. It reports false when the
// poller is not running or a fetch is already pending.
func (p *Poller) RefreshNow() bool {
	p.runMutex.Lock()
	defer p.runMutex.Unlock()

	if p.runCtx == nil || p.runCtx.Err() != nil {
		return false
	}
	return p.trigger(p.runCtx, "refresh")
}

// Ready reports whether at least one fetch has completed.
func (p *Poller) Ready() bool {
	return p.ready.Load()
}

// Pending reports whether a fetch is in flight.
func (p *Poller) Pending() bool {
	return p.inFlight.Load()
}

func (p *Poller) trigger(ctx context.Context, reason string) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("Skipping poll, previous fetch still pending", zap.String("reason", reason))
		return false
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		p.poll(ctx)
	}()
	return true
}

func (p *Poller) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.Fetch(fetchCtx)
	p.ready.Store(true)

	if ctx.Err() != nil {
		return
	}

	ev := core.StationEvent{RawTitle: raw, Available: err == nil, Err: err, At: time.Now()}
	if err != nil {
		p.logger.Debug("Metadata fetch failed", zap.String("kind", core.ErrorKind(err)), zap.Error(err))
	}
	p.handler(ctx, ev)
}

// Fetch performs one request and returns the raw "now playing" title.
func (p *Poller) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return "", &core.TransportError{Op: http.MethodGet, URL: p.url, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &core.TransportError{Op: http.MethodGet, URL: p.url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", &core.TransportError{Op: http.MethodGet, URL: p.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return "", &core.TransportError{Op: http.MethodGet, URL: p.url, Err: fmt.Errorf("read body: %w", err)}
	}

	feed, err := DecodeFeed(body)
	if err != nil {
		return "", err
	}
	return feed.RawTitle(), nil
}
