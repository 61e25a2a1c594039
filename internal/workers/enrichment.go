// Package workers provides River job workers for ticket enrichment and reconciliation.
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/inference"
	"github.com/supportai/tickethub/internal/jobs"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/observability"
)

// resultStore is the minimal interface needed by the worker.
type resultStore interface {
	Insert(ctx context.Context, r *models.NewEnrichmentResult) (*models.EnrichmentResult, bool, error)
}

// EnrichmentWorker classifies and summarizes a ticket and persists one enrichment result per job.
type EnrichmentWorker struct {
	river.WorkerDefaults[jobs.EnrichmentArgs]

	results  resultStore
	provider inference.Provider
	limiter  *rate.Limiter
	timeout  time.Duration
	metrics  observability.EnrichmentMetrics
}

// EnrichmentWorkerConfig holds configuration for the EnrichmentWorker.
type EnrichmentWorkerConfig struct {
	// Timeout bounds one job; River cancels the context and redelivers after it.
	Timeout time.Duration
	// RateLimit and RateBurst bound inference calls per second across this process's workers.
	RateLimit float64
	RateBurst int
	Metrics   observability.EnrichmentMetrics
}

const defaultEnrichmentTimeout = 60 * time.Second

// NewEnrichmentWorker creates an EnrichmentWorker. metrics may be nil when metrics are disabled.
func NewEnrichmentWorker(
	results resultStore, provider inference.Provider, cfg EnrichmentWorkerConfig,
) *EnrichmentWorker {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	burst := max(cfg.RateBurst, 1)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEnrichmentTimeout
	}

	return &EnrichmentWorker{
		results:  results,
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
		timeout:  timeout,
		metrics:  cfg.Metrics,
	}
}

// Timeout limits how long a single enrichment job can run.
func (w *EnrichmentWorker) Timeout(*river.Job[jobs.EnrichmentArgs]) time.Duration {
	return w.timeout
}

// Work runs inference and stores the result. Returning nil acknowledges the job; returning an
// error leaves it for redelivery.
func (w *EnrichmentWorker) Work(ctx context.Context, job *river.Job[jobs.EnrichmentArgs]) error {
	args := job.Args

	if reason := args.Validate(); reason != "" {
		slog.ErrorContext(ctx, "enrichment: dropping malformed job",
			"job_id", job.ID,
			"attempt", job.Attempt,
			"code", huberrors.CodePoisonMessage,
			"operation", "work "+jobs.KindEnrichment,
			"reason", reason,
		)
		w.recordOutcome(ctx, observability.OutcomePoison)

		return nil
	}

	ticketID := uuid.MustParse(args.TicketID)

	if err := w.limiter.Wait(ctx); err != nil {
		w.recordOutcome(ctx, observability.OutcomeTransient)

		return fmt.Errorf("wait for inference rate limit: %w", err)
	}

	result := w.infer(ctx, job, args.Text)
	result.TicketID = ticketID
	result.JobID = &job.ID

	stored, created, err := w.results.Insert(ctx, result)
	if err != nil {
		return w.handleStoreError(ctx, job, err)
	}

	outcome := observability.OutcomeOK

	switch {
	case !created:
		outcome = observability.OutcomeDuplicate
	case stored.Degraded:
		outcome = observability.OutcomeDegraded
	}

	slog.InfoContext(ctx, "enrichment: result stored",
		"ticket_id", ticketID,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"category", stored.Category,
		"confidence", stored.Confidence,
		"degraded", stored.Degraded,
		"duplicate", !created,
	)
	w.recordOutcome(ctx, outcome)

	return nil
}

// infer substitutes sentinel values for failed inference calls; these are never retried.
func (w *EnrichmentWorker) infer(
	ctx context.Context, job *river.Job[jobs.EnrichmentArgs], text string,
) *models.NewEnrichmentResult {
	result := &models.NewEnrichmentResult{}

	category, confidence, err := w.provider.Classify(ctx, text)
	if err != nil || !category.IsValid() {
		slog.WarnContext(ctx, "enrichment: classification degraded",
			"job_id", job.ID,
			"ticket_id", job.Args.TicketID,
			"operation", "classify",
			"error", err,
		)

		category, confidence = datatypes.CategoryUnknown, 0
		result.Degraded = true
	}

	summary, err := w.provider.Summarize(ctx, text)
	if err == nil {
		summary = inference.TruncateWords(summary, inference.MaxSummaryWords)
	}

	if err != nil || summary == "" {
		slog.WarnContext(ctx, "enrichment: summarization degraded",
			"job_id", job.ID,
			"ticket_id", job.Args.TicketID,
			"operation", "summarize",
			"error", err,
		)

		summary = models.SummaryErrorSentinel
		result.Degraded = true
	}

	result.Category = category
	result.Confidence = datatypes.RoundConfidence(confidence)
	result.Summary = summary

	return result
}

func (w *EnrichmentWorker) handleStoreError(ctx context.Context, job *river.Job[jobs.EnrichmentArgs], err error) error {
	if errors.Is(err, huberrors.ErrPoisonMessage) {
		slog.ErrorContext(ctx, "enrichment: dropping job for missing ticket",
			"ticket_id", job.Args.TicketID,
			"job_id", job.ID,
			"code", huberrors.CodePoisonMessage,
			"operation", "insert enrichment result",
			"error", err,
		)
		w.recordOutcome(ctx, observability.OutcomePoison)

		return nil
	}

	outcome := observability.OutcomeFailed
	if errors.Is(err, huberrors.ErrTransient) {
		outcome = observability.OutcomeTransient
	}

	slog.WarnContext(ctx, "enrichment: store failed, job will be redelivered",
		"ticket_id", job.Args.TicketID,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"code", huberrors.Code(err),
		"operation", "insert enrichment result",
		"error", err,
	)
	w.recordOutcome(ctx, outcome)

	return fmt.Errorf("insert enrichment result: %w", err)
}

func (w *EnrichmentWorker) recordOutcome(ctx context.Context, outcome string) {
	if w.metrics != nil {
		w.metrics.RecordJobOutcome(ctx, outcome)
	}
}
