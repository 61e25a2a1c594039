// Package jobs defines the River job arguments, inserters and error handling for ticket enrichment.
package jobs

import (
	"strings"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Job kinds and queues.
const (
	KindEnrichment = "ticket_enrichment"
	KindReconcile  = "enrichment_reconcile"

	QueueEnrichment  = "enrichment"
	QueueMaintenance = "maintenance"
)

// EnrichmentArgs is the queue message for one ticket enrichment.
type EnrichmentArgs struct {
	// TicketID is the UUID of the ticket to enrich, as a string so malformed payloads can be detected.
	TicketID string `json:"ticket_id"`

	// Text is the combined ticket text passed to inference.
	Text string `json:"text"`
}

// Kind returns the job type identifier for River.
func (EnrichmentArgs) Kind() string { return KindEnrichment }

// InsertOpts routes enrichment jobs to their own queue.
func (EnrichmentArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueEnrichment}
}

// Validate reports why the payload cannot be processed, or "" when it is well formed.
func (a EnrichmentArgs) Validate() string {
	if strings.TrimSpace(a.TicketID) == "" {
		return "missing ticket_id"
	}

	if _, err := uuid.Parse(a.TicketID); err != nil {
		return "malformed ticket_id"
	}

	if strings.TrimSpace(a.Text) == "" {
		return "empty text"
	}

	return ""
}

// ReconcileArgs triggers one reconciliation sweep. It carries no payload.
type ReconcileArgs struct{}

// Kind returns the job type identifier for River.
func (ReconcileArgs) Kind() string { return KindReconcile }

// InsertOpts runs sweeps once on the maintenance queue; a failed sweep waits for the next tick.
func (ReconcileArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueMaintenance, MaxAttempts: 1}
}
