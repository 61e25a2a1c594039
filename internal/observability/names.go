// Package observability provides OpenTelemetry metrics, tracing and log context for tickethub.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameTicketsCreated          = "tickethub_tickets_created_total"
	MetricNameEnqueueAttempts         = "tickethub_enrichment_enqueue_total"
	MetricNameJobOutcomes             = "tickethub_enrichment_jobs_total"
	MetricNameInferenceDuration       = "tickethub_inference_duration_seconds"
	MetricNameDeadLetters             = "tickethub_enrichment_dead_letters_total"
	MetricNameReconciled              = "tickethub_enrichment_reconciled_total"
	MetricNameRiverQueueDepth         = "tickethub_river_queue_depth"
	MetricNameCacheLookups            = "tickethub_cache_lookups_total"
	MetricNameCacheLoadDuration       = "tickethub_cache_load_duration_seconds"
	MetricNameRequestBodyTooLarge     = "tickethub_http_request_body_too_large_total"
	MetricNameHTTPRequests            = "tickethub_http_requests_total"
	MetricNameHTTPRequestDuration     = "tickethub_http_request_duration_seconds"
	metricNameDurationHistogramFilter = "tickethub_*_duration_seconds"
)

// Attribute keys.
const (
	AttrOutcome   = "outcome"
	AttrReason    = "reason"
	AttrStatus    = "status"
	AttrOperation = "operation"
	AttrAction    = "action"
	AttrResult    = "result"
	AttrCache     = "cache"
)

// Job outcomes for tickethub_enrichment_jobs_total.
const (
	OutcomeOK        = "ok"
	OutcomeDegraded  = "degraded"
	OutcomeDuplicate = "duplicate"
	OutcomePoison    = "poison"
	OutcomeTransient = "transient"
	OutcomeFailed    = "failed"
)

// AllowedJobOutcomes bounds the outcome label.
var AllowedJobOutcomes = map[string]bool{
	OutcomeOK:        true,
	OutcomeDegraded:  true,
	OutcomeDuplicate: true,
	OutcomePoison:    true,
	OutcomeTransient: true,
	OutcomeFailed:    true,
}

// AllowedEnqueueStatuses for tickethub_enrichment_enqueue_total.
var AllowedEnqueueStatuses = map[string]bool{
	"success": true,
	"retry":   true,
	"failed":  true,
}

// AllowedDeadLetterReasons for tickethub_enrichment_dead_letters_total.
var AllowedDeadLetterReasons = map[string]bool{
	"max_attempts": true,
	"panic":        true,
	"harvested":    true,
}

// AllowedInferenceOperations for tickethub_inference_duration_seconds.
var AllowedInferenceOperations = map[string]bool{
	"classify":  true,
	"summarize": true,
}

// AllowedCacheNames bounds the cache label.
var AllowedCacheNames = map[string]bool{
	"ticket_stats": true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}
