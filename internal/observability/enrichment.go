package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EnrichmentMetrics records intake, worker and reconciliation metrics for the enrichment pipeline.
type EnrichmentMetrics interface {
	RecordTicketCreated(ctx context.Context)
	RecordEnqueue(ctx context.Context, status string)
	RecordJobOutcome(ctx context.Context, outcome string)
	RecordInferenceDuration(ctx context.Context, operation string, duration time.Duration, status string)
	RecordDeadLetter(ctx context.Context, reason string)
	RecordReconciled(ctx context.Context, action string, count int64)
}

// enrichmentMetrics implements EnrichmentMetrics.
type enrichmentMetrics struct {
	ticketsCreated    metric.Int64Counter
	enqueues          metric.Int64Counter
	outcomes          metric.Int64Counter
	inferenceDuration metric.Float64Histogram
	deadLetters       metric.Int64Counter
	reconciled        metric.Int64Counter
}

// NewEnrichmentMetrics creates EnrichmentMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEnrichmentMetrics(meter metric.Meter) (EnrichmentMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	ticketsCreated, err := meter.Int64Counter(
		MetricNameTicketsCreated,
		metric.WithDescription("Total tickets accepted by intake"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tickets created counter: %w", err)
	}

	enqueues, err := meter.Int64Counter(
		MetricNameEnqueueAttempts,
		metric.WithDescription("Enrichment job enqueue attempts by status (success, retry, failed)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create enqueue counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		MetricNameJobOutcomes,
		metric.WithDescription("Enrichment job outcomes (ok, degraded, duplicate, poison, transient, failed)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create job outcomes counter: %w", err)
	}

	inferenceDuration, err := meter.Float64Histogram(
		MetricNameInferenceDuration,
		metric.WithDescription("Inference call duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create inference duration histogram: %w", err)
	}

	deadLetters, err := meter.Int64Counter(
		MetricNameDeadLetters,
		metric.WithDescription("Enrichment jobs moved to the dead-letter table"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dead letters counter: %w", err)
	}

	reconciled, err := meter.Int64Counter(
		MetricNameReconciled,
		metric.WithDescription("Rows touched by the reconciliation sweep (harvested, requeued)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reconciled counter: %w", err)
	}

	return &enrichmentMetrics{
		ticketsCreated:    ticketsCreated,
		enqueues:          enqueues,
		outcomes:          outcomes,
		inferenceDuration: inferenceDuration,
		deadLetters:       deadLetters,
		reconciled:        reconciled,
	}, nil
}

func (m *enrichmentMetrics) RecordTicketCreated(ctx context.Context) {
	m.ticketsCreated.Add(ctx, 1)
}

func (m *enrichmentMetrics) RecordEnqueue(ctx context.Context, status string) {
	status = NormalizeReason(status, AllowedEnqueueStatuses)
	m.enqueues.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (m *enrichmentMetrics) RecordJobOutcome(ctx context.Context, outcome string) {
	outcome = NormalizeReason(outcome, AllowedJobOutcomes)
	m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (m *enrichmentMetrics) RecordInferenceDuration(ctx context.Context, operation string, duration time.Duration, status string) {
	operation = NormalizeReason(operation, AllowedInferenceOperations)
	m.inferenceDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrStatus, status),
	))
}

func (m *enrichmentMetrics) RecordDeadLetter(ctx context.Context, reason string) {
	reason = NormalizeReason(reason, AllowedDeadLetterReasons)
	m.deadLetters.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (m *enrichmentMetrics) RecordReconciled(ctx context.Context, action string, count int64) {
	if count <= 0 {
		return
	}

	m.reconciled.Add(ctx, count, metric.WithAttributes(attribute.String(AttrAction, action)))
}
