package service

import (
	"context"
	"fmt"
	"time"

	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/observability"
	"github.com/supportai/tickethub/pkg/cache"
)

const (
	cacheNameTicketStats = "ticket_stats"
	statsCacheKey        = "trailing_window"
)

// StatsCache holds the latest stats response for a short TTL.
type StatsCache struct {
	cache   *cache.LoaderCache[string, *models.StatsResponse]
	metrics observability.CacheMetrics
}

// NewStatsCache creates a StatsCache. metrics may be nil (no cache metrics recorded).
func NewStatsCache(ttl time.Duration, metrics observability.CacheMetrics) (*StatsCache, error) {
	c, err := cache.NewLoaderCache[string, *models.StatsResponse](1, ttl, func(s string) string { return s })
	if err != nil {
		return nil, fmt.Errorf("stats cache: %w", err)
	}

	return &StatsCache{cache: c, metrics: metrics}, nil
}

// Get returns the cached stats or loads them.
func (c *StatsCache) Get(
	ctx context.Context, load func(context.Context) (*models.StatsResponse, error),
) (*models.StatsResponse, error) {
	stats, hit, err := c.cache.GetWithStats(ctx, statsCacheKey,
		func(ctx context.Context, _ string) (*models.StatsResponse, error) {
			start := time.Now()
			stats, err := load(ctx)
			if err == nil && c.metrics != nil {
				c.metrics.RecordLoad(ctx, cacheNameTicketStats, time.Since(start))
			}

			return stats, err
		})
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordLookup(ctx, cacheNameTicketStats, hit)
	}

	return stats, nil
}

// Invalidate drops the cached stats.
func (c *StatsCache) Invalidate() {
	c.cache.InvalidateAll()
}
