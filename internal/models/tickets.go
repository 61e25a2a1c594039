package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/supportai/tickethub/internal/datatypes"
)

// ListTicketsPageSize is the fixed page size for ticket listings.
const ListTicketsPageSize = 50

// Ticket represents a stored support ticket.
// Queue, Priority, Language and Tags are only set by bulk loads.
type Ticket struct {
	ID        uuid.UUID `json:"id"`
	Subject   *string   `json:"subject,omitempty"`
	Body      *string   `json:"body,omitempty"`
	Text      string    `json:"text"`
	Queue     *string   `json:"queue,omitempty"`
	Priority  *string   `json:"priority,omitempty"`
	Language  *string   `json:"language,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketWithEnrichment is a ticket joined with its most recent enrichment result.
// AI fields are null until a worker has processed the ticket.
type TicketWithEnrichment struct {
	Ticket

	Category   *datatypes.Category `json:"category"`
	Confidence *float64            `json:"confidence"`
	Summary    *string             `json:"summary"`
	Degraded   *bool               `json:"degraded"`
	EnrichedAt *time.Time          `json:"enriched_at"`
}

// NewTicket holds the fields written when a ticket row is created.
type NewTicket struct {
	Subject  *string
	Body     *string
	Text     string
	Queue    *string
	Priority *string
	Language *string
	Tags     []string
}

// CreateTicketRequest represents the request to create a ticket.
// Either text, or both subject and body, must be non-empty.
type CreateTicketRequest struct {
	Text    *string `json:"text,omitempty" validate:"omitempty,max=1000,no_null_bytes"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,max=200,no_null_bytes"`
	Body    *string `json:"body,omitempty" validate:"omitempty,max=2000,no_null_bytes"`
}

// ListTicketsFilters represents filters for listing enriched tickets
type ListTicketsFilters struct {
	Category *string `form:"category" validate:"omitempty,min=1,max=64,no_null_bytes"`
}

// ListTicketsResponse is one page of enriched tickets. The HTTP layer writes only Data.
type ListTicketsResponse struct {
	Data  []Ticket `json:"data"`
	Limit int      `json:"limit"`
}

// StatsBucket is the ticket count for one category over the stats window.
type StatsBucket struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// StatsResponse holds the stats window start and its buckets. The HTTP layer writes Data as the
// body and Since as a header.
type StatsResponse struct {
	Since time.Time     `json:"since"`
	Data  []StatsBucket `json:"data"`
}
