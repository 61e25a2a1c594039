package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all tickethub metric collectors. When metrics are disabled, all fields are nil.
// Components accept the corresponding interface and already handle nil.
type Metrics struct {
	Enrichment EnrichmentMetrics
	Queue      QueueMetrics
	Cache      CacheMetrics
	API        APIMetrics
}

// NewMetrics creates every collector from the given meter.
// Returns an empty Metrics when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return &Metrics{}, nil
	}

	enrichment, err := NewEnrichmentMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("enrichment metrics: %w", err)
	}

	queue, err := NewQueueMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("queue metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	return &Metrics{
		Enrichment: enrichment,
		Queue:      queue,
		Cache:      cache,
		API:        api,
	}, nil
}
