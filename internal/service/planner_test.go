package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/forecast"
)

type recordingCache struct {
	entries map[string]domain.ForecastResult
	sets    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]domain.ForecastResult)}
}

func (c *recordingCache) key(item, horizon, fingerprint string) string {
	return item + ":" + horizon + ":" + fingerprint
}

func (c *recordingCache) Get(ctx context.Context, item, horizon, fingerprint string) (*domain.ForecastResult, bool) {
	if r, ok := c.entries[c.key(item, horizon, fingerprint)]; ok {
		return &r, true
	}
	return nil, false
}

func (c *recordingCache) Set(ctx context.Context, item, horizon, fingerprint string, result domain.ForecastResult) {
	c.sets++
	c.entries[c.key(item, horizon, fingerprint)] = result
}

func (c *recordingCache) InvalidateAll(ctx context.Context) error {
	c.entries = make(map[string]domain.ForecastResult)
	return nil
}

func (c *recordingCache) Close() error { return nil }

func steadyRecords(item string, weeks int) []domain.IssuanceRecord {
	var records []domain.IssuanceRecord
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < weeks*7; i++ {
		records = append(records, domain.IssuanceRecord{
			Date: start.AddDate(0, 0, i), Item: item, Category: "FOOD ITEM", Usage: 10,
		})
	}
	return records
}

func TestCachedForecaster_ServesFromCache(t *testing.T) {
	engine := forecast.NewEngine(steadyRecords("RICE", 8), 1.10)
	cache := newRecordingCache()
	fc := &cachedForecaster{engine: engine, cache: cache}

	h := forecast.Horizon{Kind: forecast.Weekly}
	first := fc.Forecast(context.Background(), "RICE", h)
	require.Equal(t, 1, cache.sets)

	// Poison the cached entry; a hit returns it, proving the engine was
	// not consulted again.
	key := cache.key("RICE", h.String(), engine.SeriesFingerprint("RICE"))
	poisoned := cache.entries[key]
	poisoned.Quantity = 999
	cache.entries[key] = poisoned

	second := fc.Forecast(context.Background(), "RICE", h)
	assert.Equal(t, 999.0, second.Quantity)
	assert.NotEqual(t, first.Quantity, second.Quantity)
	assert.Equal(t, 1, cache.sets)
}

func TestCachedForecaster_DistinctHorizonsCachedSeparately(t *testing.T) {
	engine := forecast.NewEngine(steadyRecords("RICE", 8), 1.10)
	cache := newRecordingCache()
	fc := &cachedForecaster{engine: engine, cache: cache}

	fc.Forecast(context.Background(), "RICE", forecast.Horizon{Kind: forecast.Weekly})
	fc.Forecast(context.Background(), "RICE", forecast.Horizon{Kind: forecast.Monthly})
	assert.Equal(t, 2, cache.sets)
}
