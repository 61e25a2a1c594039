package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/observability"
)

// DefaultReconcileBatchSize bounds the rows touched by one sweep step.
const DefaultReconcileBatchSize = 100

// Reconcile actions for metrics.
const (
	ReconcileActionHarvested  = "harvested"
	ReconcileActionReenqueued = "reenqueued"
)

// StaleTicketLister finds committed tickets that never got an enrichment job through.
type StaleTicketLister interface {
	ListStaleUnenriched(ctx context.Context, jobKind string, olderThan time.Time, limit int) ([]models.Ticket, error)
}

// DiscardedJobHarvester copies discarded queue jobs into the dead-letter table.
type DiscardedJobHarvester interface {
	HarvestDiscarded(ctx context.Context, jobKind string, limit int) (int64, error)
}

// ReconcileStats holds statistics from a reconciliation sweep.
type ReconcileStats struct {
	Harvested  int64
	Reenqueued int
	Errors     int
}

// Reconciler closes the gap between a committed ticket and its enqueue, and makes sure every
// discarded enrichment job is visible as a dead letter.
type Reconciler struct {
	tickets    StaleTicketLister
	harvester  DiscardedJobHarvester
	inserter   JobInserter
	staleAfter time.Duration
	batchSize  int
	metrics    observability.EnrichmentMetrics
	now        func() time.Time
}

// ReconcilerConfig holds configuration for the Reconciler.
type ReconcilerConfig struct {
	StaleAfter time.Duration
	BatchSize  int
	Metrics    observability.EnrichmentMetrics
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	tickets StaleTicketLister, harvester DiscardedJobHarvester, inserter JobInserter, cfg ReconcilerConfig,
) *Reconciler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReconcileBatchSize
	}

	return &Reconciler{
		tickets:    tickets,
		harvester:  harvester,
		inserter:   inserter,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		metrics:    cfg.Metrics,
		now:        time.Now,
	}
}

// Run performs one sweep: harvest discarded jobs, then re-enqueue stale unenriched tickets.
// Per-ticket enqueue failures are counted and logged; the sweep continues.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileStats, error) {
	stats := &ReconcileStats{}

	harvested, err := r.harvester.HarvestDiscarded(ctx, KindEnrichment, r.batchSize)
	if err != nil {
		return stats, fmt.Errorf("harvest discarded jobs: %w", err)
	}

	stats.Harvested = harvested
	r.record(ctx, ReconcileActionHarvested, harvested)

	if r.metrics != nil {
		for range harvested {
			r.metrics.RecordDeadLetter(ctx, DeadLetterReasonHarvested)
		}
	}

	olderThan := r.now().Add(-r.staleAfter)

	tickets, err := r.tickets.ListStaleUnenriched(ctx, KindEnrichment, olderThan, r.batchSize)
	if err != nil {
		return stats, fmt.Errorf("list stale tickets: %w", err)
	}

	for i := range tickets {
		t := &tickets[i]

		if err := r.inserter.InsertEnrichment(ctx, EnrichmentArgs{TicketID: t.ID.String(), Text: t.Text}); err != nil {
			stats.Errors++

			slog.ErrorContext(ctx, "reconcile: failed to re-enqueue ticket",
				"ticket_id", t.ID,
				"code", huberrors.CodeEnqueueFailure,
				"operation", "reconcile enqueue",
				"error", err,
			)

			continue
		}

		stats.Reenqueued++
	}

	r.record(ctx, ReconcileActionReenqueued, int64(stats.Reenqueued))

	return stats, nil
}

func (r *Reconciler) record(ctx context.Context, action string, count int64) {
	if r.metrics != nil && count > 0 {
		r.metrics.RecordReconciled(ctx, action, count)
	}
}
