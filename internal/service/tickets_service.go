package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/jobs"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/observability"
)

// StatsWindow is the trailing window covered by GetStats.
const StatsWindow = 7 * 24 * time.Hour

// TicketsRepository defines the interface for tickets data access.
type TicketsRepository interface {
	Create(ctx context.Context, t *models.NewTicket) (*models.Ticket, error)
	GetWithEnrichment(ctx context.Context, id uuid.UUID) (*models.TicketWithEnrichment, error)
	ListEnriched(ctx context.Context, category *string, limit int) ([]models.Ticket, error)
	CountByCategorySince(ctx context.Context, since time.Time) ([]models.StatsBucket, error)
}

// TicketsService handles intake and read-side queries for tickets.
type TicketsService struct {
	repo     TicketsRepository
	inserter jobs.JobInserter
	stats    *StatsCache
	metrics  observability.EnrichmentMetrics
	now      func() time.Time
}

// TicketsServiceOption configures the TicketsService.
type TicketsServiceOption func(*TicketsService)

// WithStatsCache serves GetStats through cache.
func WithStatsCache(cache *StatsCache) TicketsServiceOption {
	return func(s *TicketsService) {
		s.stats = cache
	}
}

// WithMetrics records intake metrics. metrics may be nil.
func WithMetrics(metrics observability.EnrichmentMetrics) TicketsServiceOption {
	return func(s *TicketsService) {
		s.metrics = metrics
	}
}

// NewTicketsService creates a new tickets service.
func NewTicketsService(repo TicketsRepository, inserter jobs.JobInserter, opts ...TicketsServiceOption) *TicketsService {
	s := &TicketsService{repo: repo, inserter: inserter, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateTicket stores a ticket and then enqueues its enrichment. The ticket is returned without
// AI fields. An enqueue failure after the commit is logged and does not fail the request.
func (s *TicketsService) CreateTicket(ctx context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	newTicket, err := buildTicket(req)
	if err != nil {
		return nil, err
	}

	ticket, err := s.repo.Create(ctx, newTicket)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTicketCreated(ctx)
	}

	args := jobs.EnrichmentArgs{TicketID: ticket.ID.String(), Text: ticket.Text}
	if err := s.inserter.InsertEnrichment(ctx, args); err != nil {
		enqueueErr := huberrors.NewEnqueueError(args.TicketID, err)
		slog.ErrorContext(ctx, "intake: ticket stored but enrichment not enqueued",
			"ticket_id", ticket.ID,
			"code", huberrors.Code(enqueueErr),
			"operation", "enqueue enrichment",
			"error", enqueueErr,
		)
	}

	return ticket, nil
}

// buildTicket applies the intake rule: text, or both subject and body, must be non-empty.
// When text is absent it is derived as "<subject>. <body>".
func buildTicket(req *models.CreateTicketRequest) (*models.NewTicket, error) {
	text := trimmed(req.Text)
	subject := trimmed(req.Subject)
	body := trimmed(req.Body)

	if text == "" {
		if subject == "" || body == "" {
			return nil, huberrors.NewValidationError("text", "provide either text or both subject and body")
		}

		text = subject + ". " + body
	}

	return &models.NewTicket{
		Subject: nonEmpty(subject),
		Body:    nonEmpty(body),
		Text:    text,
	}, nil
}

// GetTicket returns a ticket joined with its most recent enrichment result.
func (s *TicketsService) GetTicket(ctx context.Context, id uuid.UUID) (*models.TicketWithEnrichment, error) {
	return s.repo.GetWithEnrichment(ctx, id)
}

// ListTickets returns up to one page of enriched tickets, optionally filtered by category or queue.
func (s *TicketsService) ListTickets(
	ctx context.Context, filters *models.ListTicketsFilters,
) (*models.ListTicketsResponse, error) {
	var category *string
	if filters != nil {
		category = nonEmpty(strings.ToLower(trimmed(filters.Category)))
	}

	tickets, err := s.repo.ListEnriched(ctx, category, models.ListTicketsPageSize)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	if tickets == nil {
		tickets = []models.Ticket{}
	}

	return &models.ListTicketsResponse{Data: tickets, Limit: models.ListTicketsPageSize}, nil
}

// GetStats returns ticket counts per category over the trailing StatsWindow.
func (s *TicketsService) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	if s.stats != nil {
		return s.stats.Get(ctx, s.loadStats)
	}

	return s.loadStats(ctx)
}

func (s *TicketsService) loadStats(ctx context.Context) (*models.StatsResponse, error) {
	since := s.now().UTC().Add(-StatsWindow)

	buckets, err := s.repo.CountByCategorySince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count tickets by category: %w", err)
	}

	if buckets == nil {
		buckets = []models.StatsBucket{}
	}

	return &models.StatsResponse{Since: since, Data: buckets}, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}

	return strings.TrimSpace(*s)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
