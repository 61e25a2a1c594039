package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
)

// EnrichmentResultsRepository handles data access for enrichment results.
type EnrichmentResultsRepository struct {
	db *pgxpool.Pool
}

// NewEnrichmentResultsRepository creates a new enrichment results repository.
func NewEnrichmentResultsRepository(db *pgxpool.Pool) *EnrichmentResultsRepository {
	return &EnrichmentResultsRepository{db: db}
}

// Insert persists one enrichment result in its own transaction. A job id that already has a result
// (redelivery after a crash between commit and ack) returns the existing row with created=false.
// A ticket id that does not exist yields huberrors.PoisonMessageError.
func (r *EnrichmentResultsRepository) Insert(
	ctx context.Context, in *models.NewEnrichmentResult,
) (result *models.EnrichmentResult, created bool, err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate result id: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO enrichment_results (id, ticket_id, job_id, category, confidence, summary, degraded)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (job_id) DO NOTHING
			RETURNING id, ticket_id, job_id, category, confidence, summary, degraded, created_at`

		res, scanErr := scanResult(tx.QueryRow(ctx, insert,
			id, in.TicketID, in.JobID, in.Category.String(), datatypes.RoundConfidence(in.Confidence), in.Summary, in.Degraded,
		))
		if scanErr == nil {
			result, created = res, true

			return nil
		}

		if !errors.Is(scanErr, pgx.ErrNoRows) || in.JobID == nil {
			return scanErr
		}

		existing := `
			SELECT id, ticket_id, job_id, category, confidence, summary, degraded, created_at
			FROM enrichment_results
			WHERE job_id = $1`

		result, scanErr = scanResult(tx.QueryRow(ctx, existing, *in.JobID))

		return scanErr
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, false, huberrors.NewPoisonMessageError("ticket " + in.TicketID.String() + " does not exist")
		}

		return nil, false, wrapError("insert enrichment result", err)
	}

	return result, created, nil
}

// ListByTicket returns every result for a ticket, most recent first.
func (r *EnrichmentResultsRepository) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]models.EnrichmentResult, error) {
	query := `
		SELECT id, ticket_id, job_id, category, confidence, summary, degraded, created_at
		FROM enrichment_results
		WHERE ticket_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, wrapError("list enrichment results", err)
	}
	defer rows.Close()

	results := []models.EnrichmentResult{}

	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, wrapError("scan enrichment result", err)
		}

		results = append(results, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate enrichment results", err)
	}

	return results, nil
}

func scanResult(row pgx.Row) (*models.EnrichmentResult, error) {
	var (
		res      models.EnrichmentResult
		category string
	)

	err := row.Scan(&res.ID, &res.TicketID, &res.JobID, &category, &res.Confidence, &res.Summary, &res.Degraded, &res.CreatedAt)
	if err != nil {
		return nil, err
	}

	c, ok := datatypes.ParseCategory(category)
	if !ok {
		c = datatypes.CategoryUnknown
	}

	res.Category = c

	return &res, nil
}
