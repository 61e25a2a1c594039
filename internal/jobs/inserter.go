package jobs

import (
	"context"
)

// JobInserter is an interface for inserting enrichment jobs into the queue.
// This allows services to enqueue jobs without knowing about River directly.
type JobInserter interface {
	// InsertEnrichment enqueues an enrichment job. A nil error means the job is durably stored.
	InsertEnrichment(ctx context.Context, args EnrichmentArgs) error
}
