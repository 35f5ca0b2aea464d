// Package geocode is a read-through cache in front of a reverse-geocoding
// provider. Lookups go Redis (hot) -> store (durable) -> provider; results
// are keyed by coordinates rounded to four decimal places.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/metrics"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/store"
)

const hotKeyPrefix = "geo:"

// Durable is the persistent cache tier.
type Durable interface {
	GetGeo(ctx context.Context, key string) (*model.GeoCacheEntry, error)
	PutGeo(ctx context.Context, e model.GeoCacheEntry) error
	PurgeGeoOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cache resolves coordinates through the cache tiers. Concurrent misses for
// one key share a single provider call.
type Cache struct {
	durable  Durable
	hot      *redis.Client
	provider Provider
	ttl      time.Duration
	group    singleflight.Group
	now      func() time.Time
}

// NewCache returns a Cache. hot may be nil to run without the Redis tier.
func NewCache(durable Durable, hot *redis.Client, provider Provider, ttl time.Duration) *Cache {
	return &Cache{
		durable:  durable,
		hot:      hot,
		provider: provider,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Reverse returns the provider payload for the point, from cache when a
// fresh entry exists. Provider failures are ErrProviderUnavailable.
func (c *Cache) Reverse(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	key := geo.CacheKey(lat, lon)

	if res, ok := c.getHot(ctx, key); ok {
		metrics.IncGeocodeLookup(metrics.GeocodeHotHit)
		return res, nil
	}
	if e, ok := c.getDurable(ctx, key); ok {
		metrics.IncGeocodeLookup(metrics.GeocodeDurableHit)
		c.setHot(ctx, key, e.Result, c.ttl-c.now().Sub(e.CachedAt))
		return e.Result, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have filled the durable tier meanwhile.
		if e, ok := c.getDurable(ctx, key); ok {
			return e.Result, nil
		}
		return c.fetch(context.WithoutCancel(ctx), key, geo.Round4(lat), geo.Round4(lon))
	})
	if err != nil {
		metrics.IncGeocodeLookup(metrics.GeocodeError)
		return nil, err
	}
	metrics.IncGeocodeLookup(metrics.GeocodeMiss)
	return v.(json.RawMessage), nil
}

func (c *Cache) fetch(ctx context.Context, key string, lat, lon float64) (json.RawMessage, error) {
	res, err := c.provider.Reverse(ctx, lat, lon)
	if err != nil {
		if !errors.Is(err, ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return nil, err
	}

	entry := model.GeoCacheEntry{Key: key, Result: res, CachedAt: c.now()}
	if err := c.durable.PutGeo(ctx, entry); err != nil {
		zap.S().Named("geocode").Warnw("durable cache write failed", "key", key, "error", err)
	}
	c.setHot(ctx, key, res, c.ttl)
	return res, nil
}

func (c *Cache) getDurable(ctx context.Context, key string) (*model.GeoCacheEntry, bool) {
	e, err := c.durable.GetGeo(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.S().Named("geocode").Warnw("durable cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if c.now().Sub(e.CachedAt) >= c.ttl {
		return nil, false
	}
	return e, true
}

func (c *Cache) getHot(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.hot == nil {
		return nil, false
	}
	b, err := c.hot.Get(ctx, hotKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.S().Named("geocode").Warnw("hot cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return json.RawMessage(b), true
}

func (c *Cache) setHot(ctx context.Context, key string, res json.RawMessage, ttl time.Duration) {
	if c.hot == nil || ttl <= 0 {
		return
	}
	if err := c.hot.Set(ctx, hotKeyPrefix+key, []byte(res), ttl).Err(); err != nil {
		zap.S().Named("geocode").Warnw("hot cache write failed", "key", key, "error", err)
	}
}

// PurgeStale deletes durable entries older than the TTL. Hot entries expire
// on their own.
func (c *Cache) PurgeStale(ctx context.Context) (int64, error) {
	n, err := c.durable.PurgeGeoOlderThan(ctx, c.now().Add(-c.ttl))
	if err != nil {
		return 0, err
	}
	zap.S().Named("geocode").Infow("purged stale geocode entries", "count", n)
	return n, nil
}
