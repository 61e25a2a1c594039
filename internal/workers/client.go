package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/inference"
	"github.com/supportai/tickethub/internal/jobs"
	"github.com/supportai/tickethub/internal/observability"
)

// ClientDeps are the collaborators the enrichment and reconcile workers need.
type ClientDeps struct {
	Results     resultStore
	DeadLetters jobs.DeadLetterWriter
	Tickets     jobs.StaleTicketLister
	Harvester   jobs.DiscardedJobHarvester
	Provider    inference.Provider
	Metrics     observability.EnrichmentMetrics
}

// NewClient builds a River client that works the enrichment and maintenance queues and
// schedules the reconcile sweep. It does not start the client.
func NewClient(db *pgxpool.Pool, cfg *config.Config, deps ClientDeps) (*river.Client[pgx.Tx], error) {
	riverWorkers := river.NewWorkers()

	river.AddWorker(riverWorkers, NewEnrichmentWorker(deps.Results, deps.Provider, EnrichmentWorkerConfig{
		Timeout:   cfg.EnrichmentJobTimeout,
		RateLimit: cfg.EnrichmentRateLimit,
		RateBurst: cfg.EnrichmentRateBurst,
		Metrics:   deps.Metrics,
	}))

	reconciler := jobs.NewReconciler(
		deps.Tickets,
		deps.Harvester,
		jobs.NewRiverJobInserter(jobs.ContextRiverClient{}, cfg.EnrichmentMaxAttempts),
		jobs.ReconcilerConfig{StaleAfter: cfg.ReconcileStaleAfter, Metrics: deps.Metrics},
	)
	river.AddWorker(riverWorkers, NewReconcileWorker(reconciler))

	client, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			jobs.QueueEnrichment:  {MaxWorkers: cfg.EnrichmentWorkerCount},
			jobs.QueueMaintenance: {MaxWorkers: 1},
		},
		Workers:              riverWorkers,
		ErrorHandler:         jobs.NewErrorHandler(deps.DeadLetters, deps.Metrics),
		MaxAttempts:          cfg.EnrichmentMaxAttempts,
		RescueStuckJobsAfter: cfg.EnrichmentRescueAfter,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.ReconcileInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.ReconcileArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	return client, nil
}

// NewInsertOnlyClient builds a River client with no workers, used by processes that only enqueue.
func NewInsertOnlyClient(db *pgxpool.Pool) (*river.Client[pgx.Tx], error) {
	client, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	return client, nil
}

// QueueDepthQuerier is satisfied by *pgxpool.Pool.
type QueueDepthQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunQueueDepthPoller periodically samples the enrichment queue depth until ctx is done.
func RunQueueDepthPoller(ctx context.Context, db QueueDepthQuerier, metrics observability.QueueMetrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	update := func() {
		var count int

		err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
			jobs.QueueEnrichment,
			rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
		).Scan(&count)
		if err != nil {
			slog.WarnContext(ctx, "river queue depth poll failed", "error", err)

			return
		}

		metrics.SetRiverQueueDepth(count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
