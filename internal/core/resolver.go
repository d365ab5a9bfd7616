package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"radiometa/internal/store"
	"radiometa/pkg/artwork"
)

// sourceNone labels lookups that found no artwork.
const sourceNone = "none"

// Resolver answers artwork lookups from the cache, running the cascade at
// most once per key even under concurrent requests.
type Resolver struct {
	cascade ArtworkCascade
	cache   *store.ResultCache[LookupResult]
	group   singleflight.Group
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(cascade ArtworkCascade, metrics MetricsRecorder, logger *zap.Logger) *Resolver {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Resolver{
		cascade: cascade,
		cache:   store.NewResultCache[LookupResult](),
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve returns the lookup result for rec. A cached entry, including a
// cached "not found", short-circuits the cascade. A second caller for a key
// that is being resolved waits for the first caller's answer. Results of a
// canceled lookup are returned but not cached.
func (r *Resolver) Resolve(ctx context.Context, rec TrackRecord) (LookupResult, error) {
	key := rec.Key()

	if res, ok := r.cache.Get(key); ok {
		r.metrics.RecordCacheHit()
		return res, nil
	}
	r.metrics.RecordCacheMiss()

	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		// A previous flight may have populated the cache since the miss above.
		if res, ok := r.cache.Get(key); ok {
			return res, nil
		}
		return r.run(ctx, key, rec.Query())
	})
	if shared {
		r.logger.Debug("Joined in-flight lookup", zap.String("key", key))
	}

	res, _ := v.(LookupResult)
	return res, err
}

// Cached returns the cached result for key without resolving.
func (r *Resolver) Cached(key string) (LookupResult, bool) {
	return r.cache.Get(key)
}

// CacheSize returns the number of cached keys.
func (r *Resolver) CacheSize() int {
	return r.cache.Len()
}

func (r *Resolver) run(ctx context.Context, key string, q artwork.Query) (LookupResult, error) {
	start := time.Now()
	found, cascadeErr := r.cascade.Resolve(ctx, q)
	res := lookupFromArtwork(found)

	source := res.Source
	if !res.Found {
		source = sourceNone
	}
	r.metrics.RecordLookup(source, time.Since(start))
	r.recordProviderErrors(key, cascadeErr)

	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	r.cache.Put(key, res)
	r.metrics.SetCacheSize(r.cache.Len())

	r.logger.Debug("Resolved artwork",
		zap.String("key", key),
		zap.Bool("found", res.Found),
		zap.String("source", res.Source),
		zap.Duration("took", time.Since(start)),
	)

	return res, nil
}

func (r *Resolver) recordProviderErrors(key string, err error) {
	for _, e := range multierr.Errors(err) {
		var perr *artwork.ProviderError
		if !errors.As(e, &perr) {
			continue
		}
		r.metrics.RecordProviderError(perr.Provider)
		r.logger.Debug("Artwork provider failed",
			zap.String("key", key),
			zap.String("provider", perr.Provider),
			zap.Error(perr.Err),
		)
	}
}
