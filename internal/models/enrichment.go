package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/supportai/tickethub/internal/datatypes"
)

// SummaryErrorSentinel is stored as the summary when summarization fails.
const SummaryErrorSentinel = "Error generating summary."

// EnrichmentResult is one AI enrichment of a ticket. Rows are append-only;
// readers treat the most recent row per ticket as authoritative.
type EnrichmentResult struct {
	ID         uuid.UUID          `json:"id"`
	TicketID   uuid.UUID          `json:"ticket_id"`
	JobID      *int64             `json:"job_id,omitempty"`
	Category   datatypes.Category `json:"category"`
	Confidence float64            `json:"confidence"`
	Summary    string             `json:"summary"`
	Degraded   bool               `json:"degraded"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewEnrichmentResult holds the fields written for an enrichment result.
// JobID is nil for bulk-seeded results.
type NewEnrichmentResult struct {
	TicketID   uuid.UUID
	JobID      *int64
	Category   datatypes.Category
	Confidence float64
	Summary    string
	Degraded   bool
}

// DeadLetter records an enrichment job that exhausted its delivery attempts.
type DeadLetter struct {
	ID            uuid.UUID `json:"id"`
	JobID         int64     `json:"job_id"`
	TicketID      string    `json:"ticket_id"`
	Text          string    `json:"text"`
	DeliveryCount int       `json:"delivery_count"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewDeadLetter holds the fields written for a dead letter.
type NewDeadLetter struct {
	JobID         int64
	TicketID      string
	Text          string
	DeliveryCount int
	Reason        string
}

// ListDeadLettersFilters represents filters for listing dead letters
type ListDeadLettersFilters struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}

// ListDeadLettersResponse represents the response for listing dead letters
type ListDeadLettersResponse struct {
	Data  []DeadLetter `json:"data"`
	Limit int          `json:"limit"`
}
