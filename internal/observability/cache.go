package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lookup results for tickethub_cache_lookups_total.
const (
	CacheResultHit  = "hit"
	CacheResultMiss = "miss"
)

// CacheMetrics records read-cache lookups and backing-store loads. The cache label is bounded
// by AllowedCacheNames.
type CacheMetrics interface {
	RecordLookup(ctx context.Context, cacheName string, hit bool)
	RecordLoad(ctx context.Context, cacheName string, d time.Duration)
}

type cacheMetrics struct {
	lookups      metric.Int64Counter
	loadDuration metric.Float64Histogram
}

// NewCacheMetrics creates CacheMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	lookups, err := meter.Int64Counter(
		MetricNameCacheLookups,
		metric.WithDescription("Cache lookups by cache and result (hit, miss). "+
			"Hit ratio = rate(result=hit) / rate(all) per cache."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache lookups counter: %w", err)
	}

	loadDuration, err := meter.Float64Histogram(
		MetricNameCacheLoadDuration,
		metric.WithDescription("Time spent loading a missed cache entry from the database."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache load duration histogram: %w", err)
	}

	return &cacheMetrics{lookups: lookups, loadDuration: loadDuration}, nil
}

func (c *cacheMetrics) RecordLookup(ctx context.Context, cacheName string, hit bool) {
	result := CacheResultMiss
	if hit {
		result = CacheResultHit
	}

	c.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrCache, NormalizeCacheName(cacheName)),
		attribute.String(AttrResult, result),
	))
}

func (c *cacheMetrics) RecordLoad(ctx context.Context, cacheName string, d time.Duration) {
	c.loadDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String(AttrCache, NormalizeCacheName(cacheName))))
}
