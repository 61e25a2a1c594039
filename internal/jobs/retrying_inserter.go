package jobs

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/supportai/tickethub/internal/observability"
)

const (
	defaultInitialBackoffWhenZero = 500 * time.Millisecond
	backoffMultiplier             = 2
)

// RetryingInserter wraps a JobInserter and retries InsertEnrichment on failure with
// exponential backoff and jitter. Use for transient River/DB errors.
type RetryingInserter struct {
	inner          JobInserter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	metrics        observability.EnrichmentMetrics
}

// RetryingInserterConfig holds configuration for the retrying inserter.
type RetryingInserterConfig struct {
	MaxRetries     int           // Number of retries after the first attempt (total attempts = 1 + MaxRetries).
	InitialBackoff time.Duration // Backoff after first failure; doubles each attempt, capped by MaxBackoff.
	MaxBackoff     time.Duration // Upper bound on backoff between attempts.
	Metrics        observability.EnrichmentMetrics
}

// NewRetryingInserter returns a JobInserter that retries InsertEnrichment on error with
// exponential backoff and jitter.
func NewRetryingInserter(inner JobInserter, cfg RetryingInserterConfig) *RetryingInserter {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoffWhenZero
	}

	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	return &RetryingInserter{
		inner:          inner,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		metrics:        cfg.Metrics,
	}
}

// InsertEnrichment calls the inner inserter; on error, retries up to maxRetries times.
// Respects context cancellation during backoff.
func (r *RetryingInserter) InsertEnrichment(ctx context.Context, args EnrichmentArgs) error {
	var lastErr error

	backoff := r.initialBackoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err := r.inner.InsertEnrichment(ctx, args)
		if err == nil {
			r.record(ctx, "success")

			return nil
		}

		lastErr = err

		if attempt == r.maxRetries {
			break
		}

		r.record(ctx, "retry")

		sleep := r.jitter(backoff)
		slog.Warn("intake: enqueue failed, retrying after backoff",
			"ticket_id", args.TicketID,
			"attempt", attempt+1,
			"max_attempts", r.maxRetries+1,
			"backoff", sleep,
			"error", err,
		)

		if err := r.sleep(ctx, sleep); err != nil {
			r.record(ctx, "failed")

			return err
		}

		backoff = min(backoff*backoffMultiplier, r.maxBackoff)
	}

	r.record(ctx, "failed")

	return lastErr
}

func (r *RetryingInserter) record(ctx context.Context, status string) {
	if r.metrics != nil {
		r.metrics.RecordEnqueue(ctx, status)
	}
}

// jitter returns a duration between 50% and 100% of duration to avoid thundering herd.
func (r *RetryingInserter) jitter(duration time.Duration) time.Duration {
	const jitterHalf = 2

	half := duration / jitterHalf
	if half <= 0 {
		return duration
	}

	var buf [8]byte

	if _, err := rand.Read(buf[:]); err != nil {
		return half
	}

	randVal := binary.BigEndian.Uint64(buf[:])

	//nolint:gosec // G115: modulo result is in [0, half), safe to convert to int64
	jitterNanos := int64(randVal % uint64(half.Nanoseconds()))

	return half + time.Duration(jitterNanos)
}

// sleep blocks for d or until ctx is cancelled.
func (r *RetryingInserter) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

var _ JobInserter = (*RetryingInserter)(nil)
