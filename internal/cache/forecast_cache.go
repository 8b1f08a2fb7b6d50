// internal/cache/forecast_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/domain"
)

const forecastKeyPrefix = "marketlist:forecast:"

const defaultForecastTTL = 6 * time.Hour

// ForecastCache stores computed forecasts keyed by item, horizon and a
// fingerprint of the issuance series the forecast was built from. New
// issuance data changes the fingerprint, so stale entries are never served.
type ForecastCache interface {
	Get(ctx context.Context, item, horizon, fingerprint string) (*domain.ForecastResult, bool)
	Set(ctx context.Context, item, horizon, fingerprint string, result domain.ForecastResult)
	InvalidateAll(ctx context.Context) error
	Close() error
}

// NewForecastCache returns a Redis-backed cache, or the no-op cache when
// caching is disabled or Redis is unreachable. Planning still works without
// it, each run just recomputes every forecast.
func NewForecastCache(cfg config.CacheConfig) ForecastCache {
	if !cfg.Enabled {
		return NewNoopForecastCache()
	}
	client, err := newRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, forecast caching disabled")
		return NewNoopForecastCache()
	}
	ttl := defaultForecastTTL
	if cfg.ForecastTTLSeconds > 0 {
		ttl = time.Duration(cfg.ForecastTTLSeconds) * time.Second
	}
	log.Info().Dur("ttl", ttl).Msg("forecast cache enabled")
	return &redisForecastCache{client: client, ttl: ttl}
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

func forecastKey(item, horizon, fingerprint string) string {
	return fmt.Sprintf("%s%s:%s:%s", forecastKeyPrefix, item, horizon, fingerprint)
}

func (c *redisForecastCache) Get(ctx context.Context, item, horizon, fingerprint string) (*domain.ForecastResult, bool) {
	payload, err := c.client.Get(ctx, forecastKey(item, horizon, fingerprint)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("item", item).Msg("forecast cache read failed")
		}
		return nil, false
	}
	var result domain.ForecastResult
	if err := json.Unmarshal(payload, &result); err != nil {
		log.Warn().Err(err).Str("item", item).Msg("corrupt forecast cache entry")
		return nil, false
	}
	return &result, true
}

func (c *redisForecastCache) Set(ctx context.Context, item, horizon, fingerprint string, result domain.ForecastResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Str("item", item).Msg("failed to encode forecast for cache")
		return
	}
	if err := c.client.Set(ctx, forecastKey(item, horizon, fingerprint), payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("item", item).Msg("forecast cache write failed")
	}
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix)
}

func (c *redisForecastCache) Close() error {
	return c.client.Close()
}

// NewNoopForecastCache returns a cache that stores nothing.
func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

type noopForecastCache struct{}

func (n *noopForecastCache) Get(ctx context.Context, item, horizon, fingerprint string) (*domain.ForecastResult, bool) {
	return nil, false
}

func (n *noopForecastCache) Set(ctx context.Context, item, horizon, fingerprint string, result domain.ForecastResult) {
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error { return nil }

func (n *noopForecastCache) Close() error { return nil }
