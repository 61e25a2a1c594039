package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/observability"
)

// Dead-letter reasons.
const (
	DeadLetterReasonMaxAttempts = "max_attempts"
	DeadLetterReasonPanic       = "panic"
	DeadLetterReasonHarvested   = "harvested"
)

// DeadLetterWriter stores jobs that will not be retried.
type DeadLetterWriter interface {
	Create(ctx context.Context, dl *models.NewDeadLetter) error
}

// ErrorHandler logs job errors and panics and dead-letters enrichment jobs on their final attempt.
type ErrorHandler struct {
	deadLetters DeadLetterWriter
	metrics     observability.EnrichmentMetrics
}

// NewErrorHandler creates an ErrorHandler. deadLetters may be nil to only log.
func NewErrorHandler(deadLetters DeadLetterWriter, metrics observability.EnrichmentMetrics) *ErrorHandler {
	return &ErrorHandler{deadLetters: deadLetters, metrics: metrics}
}

// HandleError is called when a job returns an error.
func (h *ErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	slog.ErrorContext(ctx, "job failed",
		"job_kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"code", huberrors.Code(err),
		"operation", "work "+job.Kind,
		"error", err,
	)

	if isFinalAttempt(job) {
		h.deadLetter(ctx, job, DeadLetterReasonMaxAttempts, err.Error())
	}

	// Return nil to use default retry behavior
	return nil
}

// HandlePanic is called when a job panics.
func (h *ErrorHandler) HandlePanic(
	ctx context.Context, job *rivertype.JobRow, panicVal any, trace string,
) *river.ErrorHandlerResult {
	slog.ErrorContext(ctx, "job panicked",
		"job_kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"code", huberrors.CodeInternal,
		"operation", "work "+job.Kind,
		"panic_value", panicVal,
		"stack_trace", trace,
	)

	if isFinalAttempt(job) {
		h.deadLetter(ctx, job, DeadLetterReasonPanic, fmt.Sprint(panicVal))
	}

	// Return nil to use default behavior (mark as errored, will retry)
	return nil
}

func isFinalAttempt(job *rivertype.JobRow) bool {
	return job.Kind == KindEnrichment && job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts
}

func (h *ErrorHandler) deadLetter(ctx context.Context, job *rivertype.JobRow, reason, detail string) {
	if h.deadLetters == nil {
		return
	}

	var args EnrichmentArgs
	if err := json.Unmarshal(job.EncodedArgs, &args); err != nil {
		slog.WarnContext(ctx, "enrichment: undecodable args on dead-lettered job", "job_id", job.ID, "error", err)
	}

	dl := &models.NewDeadLetter{
		JobID:         job.ID,
		TicketID:      args.TicketID,
		Text:          args.Text,
		DeliveryCount: job.Attempt,
		Reason:        reason + ": " + detail,
	}

	if err := h.deadLetters.Create(ctx, dl); err != nil {
		// The reconcile sweep harvests the discarded job later.
		slog.ErrorContext(ctx, "enrichment: failed to record dead letter",
			"job_id", job.ID,
			"ticket_id", args.TicketID,
			"code", huberrors.Code(err),
			"operation", "create dead letter",
			"error", err,
		)

		return
	}

	slog.WarnContext(ctx, "enrichment: job dead-lettered",
		"job_id", job.ID,
		"ticket_id", args.TicketID,
		"delivery_count", job.Attempt,
		"reason", reason,
	)

	if h.metrics != nil {
		h.metrics.RecordDeadLetter(ctx, reason)
	}
}

var _ river.ErrorHandler = (*ErrorHandler)(nil)
