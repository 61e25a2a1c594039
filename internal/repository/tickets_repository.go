// Package repository provides data access for tickets, enrichment results and dead letters.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
)

// latestResultJoin selects the authoritative (most recent) enrichment result for t.id.
const latestResultJoin = `
	LATERAL (
		SELECT er.category, er.confidence, er.summary, er.degraded, er.created_at
		FROM enrichment_results er
		WHERE er.ticket_id = t.id
		ORDER BY er.created_at DESC, er.id DESC
		LIMIT 1
	) latest`

const ticketColumns = `t.id, t.subject, t.body, t.text, t.queue, t.priority, t.language, t.tags, t.created_at`

// TicketsRepository handles data access for tickets.
type TicketsRepository struct {
	db *pgxpool.Pool
}

// NewTicketsRepository creates a new tickets repository.
func NewTicketsRepository(db *pgxpool.Pool) *TicketsRepository {
	return &TicketsRepository{db: db}
}

// Create inserts a new ticket. The row is committed when Create returns.
func (r *TicketsRepository) Create(ctx context.Context, t *models.NewTicket) (*models.Ticket, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket id: %w", err)
	}

	query := `
		INSERT INTO tickets AS t (id, subject, body, text, queue, priority, language, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(r.db.QueryRow(ctx, query,
		id, t.Subject, t.Body, t.Text, t.Queue, t.Priority, t.Language, tagsOrEmpty(t.Tags),
	))
	if err != nil {
		return nil, wrapError("create ticket", err)
	}

	return ticket, nil
}

// GetWithEnrichment retrieves a ticket joined with its most recent enrichment result, if any.
func (r *TicketsRepository) GetWithEnrichment(ctx context.Context, id uuid.UUID) (*models.TicketWithEnrichment, error) {
	query := `
		SELECT ` + ticketColumns + `,
			latest.category, latest.confidence, latest.summary, latest.degraded, latest.created_at
		FROM tickets t
		LEFT JOIN ` + latestResultJoin + ` ON true
		WHERE t.id = $1`

	var (
		out      models.TicketWithEnrichment
		category *string
	)

	err := r.db.QueryRow(ctx, query, id).Scan(
		&out.ID, &out.Subject, &out.Body, &out.Text, &out.Queue, &out.Priority, &out.Language, &out.Tags, &out.CreatedAt,
		&category, &out.Confidence, &out.Summary, &out.Degraded, &out.EnrichedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("ticket", "ticket not found")
		}

		return nil, wrapError("get ticket", err)
	}

	if category != nil {
		c, ok := datatypes.ParseCategory(*category)
		if !ok {
			c = datatypes.CategoryUnknown
		}

		out.Category = &c
	}

	return &out, nil
}

// ListEnriched returns tickets that have at least one enrichment result, newest first.
// When category is set, a ticket matches if its queue or its latest category equals it (case-insensitive).
func (r *TicketsRepository) ListEnriched(ctx context.Context, category *string, limit int) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN ` + latestResultJoin + ` ON true
		WHERE ($1::text IS NULL OR lower(t.queue) = lower($1::text) OR latest.category = lower($1::text))
		ORDER BY t.created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, category, limit)
	if err != nil {
		return nil, wrapError("list tickets", err)
	}
	defer rows.Close()

	tickets := []models.Ticket{}

	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, wrapError("scan ticket", err)
		}

		tickets = append(tickets, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate tickets", err)
	}

	return tickets, nil
}

// CountByCategorySince counts tickets created at or after since, bucketed by queue, then by latest
// enrichment category, then "uncategorized".
func (r *TicketsRepository) CountByCategorySince(ctx context.Context, since time.Time) ([]models.StatsBucket, error) {
	query := `
		SELECT COALESCE(NULLIF(t.queue, ''), latest.category, 'uncategorized') AS bucket, count(*)
		FROM tickets t
		LEFT JOIN ` + latestResultJoin + ` ON true
		WHERE t.created_at >= $1
		GROUP BY bucket
		ORDER BY count(*) DESC, bucket`

	rows, err := r.db.Query(ctx, query, since.UTC())
	if err != nil {
		return nil, wrapError("count tickets by category", err)
	}
	defer rows.Close()

	buckets := []models.StatsBucket{}

	for rows.Next() {
		var b models.StatsBucket
		if err := rows.Scan(&b.Category, &b.Count); err != nil {
			return nil, wrapError("scan stats bucket", err)
		}

		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate stats buckets", err)
	}

	return buckets, nil
}

// ListStaleUnenriched returns tickets created before olderThan that have no enrichment result,
// no dead letter, and no queue job of jobKind in any state.
func (r *TicketsRepository) ListStaleUnenriched(
	ctx context.Context, jobKind string, olderThan time.Time, limit int,
) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		WHERE t.created_at < $1
			AND NOT EXISTS (SELECT 1 FROM enrichment_results er WHERE er.ticket_id = t.id)
			AND NOT EXISTS (SELECT 1 FROM enrichment_dead_letters d WHERE d.ticket_id = t.id::text)
			AND NOT EXISTS (
				SELECT 1 FROM river_job j
				WHERE j.kind = $2 AND j.args->>'ticket_id' = t.id::text
			)
		ORDER BY t.created_at
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, olderThan.UTC(), jobKind, limit)
	if err != nil {
		return nil, wrapError("list unenriched tickets", err)
	}
	defer rows.Close()

	var tickets []models.Ticket

	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, wrapError("scan ticket", err)
		}

		tickets = append(tickets, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate unenriched tickets", err)
	}

	return tickets, nil
}

// SeedRow is one bulk-loaded ticket with its precomputed enrichment.
type SeedRow struct {
	Ticket     models.NewTicket
	Category   datatypes.Category
	Confidence float64
	Summary    string
}

// CreateSeeded inserts tickets with their enrichment results in a single transaction.
// Seeded results carry no job id.
func (r *TicketsRepository) CreateSeeded(ctx context.Context, rows []SeedRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		for i := range rows {
			row := &rows[i]

			ticketID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate ticket id: %w", err)
			}

			resultID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate result id: %w", err)
			}

			batch.Queue(`
				INSERT INTO tickets (id, subject, body, text, queue, priority, language, tags)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				ticketID, row.Ticket.Subject, row.Ticket.Body, row.Ticket.Text,
				row.Ticket.Queue, row.Ticket.Priority, row.Ticket.Language, tagsOrEmpty(row.Ticket.Tags),
			)
			batch.Queue(`
				INSERT INTO enrichment_results (id, ticket_id, category, confidence, summary)
				VALUES ($1, $2, $3, $4, $5)`,
				resultID, ticketID, row.Category.String(), datatypes.RoundConfidence(row.Confidence), row.Summary,
			)
		}

		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, wrapError("seed tickets", err)
	}

	return len(rows), nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket

	err := row.Scan(&t.ID, &t.Subject, &t.Body, &t.Text, &t.Queue, &t.Priority, &t.Language, &t.Tags, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}
