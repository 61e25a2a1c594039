package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/supportai/tickethub/internal/jobs"
)

// reconciler is the minimal interface needed by the worker.
type reconciler interface {
	Run(ctx context.Context) (*jobs.ReconcileStats, error)
}

// ReconcileWorker runs one reconciliation sweep per periodic job.
type ReconcileWorker struct {
	river.WorkerDefaults[jobs.ReconcileArgs]

	reconciler reconciler
}

// NewReconcileWorker creates a ReconcileWorker.
func NewReconcileWorker(r reconciler) *ReconcileWorker {
	return &ReconcileWorker{reconciler: r}
}

// Work runs the sweep. Errors are returned so River records them; the job is not retried.
func (w *ReconcileWorker) Work(ctx context.Context, _ *river.Job[jobs.ReconcileArgs]) error {
	stats, err := w.reconciler.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if stats.Harvested > 0 || stats.Reenqueued > 0 || stats.Errors > 0 {
		slog.InfoContext(ctx, "reconcile: sweep finished",
			"harvested", stats.Harvested,
			"reenqueued", stats.Reenqueued,
			"errors", stats.Errors,
		)
	}

	return nil
}
