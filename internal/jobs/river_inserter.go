package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// RiverClient is the subset of *river.Client used for inserting jobs.
type RiverClient interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// RiverJobInserter implements JobInserter using the River client.
type RiverJobInserter struct {
	client      RiverClient
	maxAttempts int
}

// NewRiverJobInserter creates a new River-based job inserter. maxAttempts bounds deliveries per job;
// zero keeps River's default.
func NewRiverJobInserter(client RiverClient, maxAttempts int) *RiverJobInserter {
	return &RiverJobInserter{client: client, maxAttempts: maxAttempts}
}

// InsertEnrichment enqueues an enrichment job with uniqueness constraints.
func (r *RiverJobInserter) InsertEnrichment(ctx context.Context, args EnrichmentArgs) error {
	opts := &river.InsertOpts{
		Queue:       QueueEnrichment,
		MaxAttempts: r.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			// Only one live job per ticket (by args)
			ByArgs: true,
			// Note: JobStatePending is required by River when using ByState
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}

	if _, err := r.client.Insert(ctx, args, opts); err != nil {
		return fmt.Errorf("insert enrichment job: %w", err)
	}

	return nil
}

var _ JobInserter = (*RiverJobInserter)(nil)

// ContextRiverClient inserts through the River client River attaches to a worker's context.
// It lets periodic workers enqueue jobs without holding a reference to the client that runs them.
type ContextRiverClient struct{}

// Insert implements RiverClient.
func (ContextRiverClient) Insert(
	ctx context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	client, err := river.ClientFromContextSafely[pgx.Tx](ctx)
	if err != nil {
		return nil, fmt.Errorf("river client from context: %w", err)
	}

	return client.Insert(ctx, args, opts) //nolint:wrapcheck // wrapped by RiverJobInserter
}

var _ RiverClient = ContextRiverClient{}
