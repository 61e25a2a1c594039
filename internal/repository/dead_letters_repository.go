package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportai/tickethub/internal/models"
)

// DeadLettersRepository handles data access for enrichment dead letters.
type DeadLettersRepository struct {
	db *pgxpool.Pool
}

// NewDeadLettersRepository creates a new dead letters repository.
func NewDeadLettersRepository(db *pgxpool.Pool) *DeadLettersRepository {
	return &DeadLettersRepository{db: db}
}

// Create records a dead letter. Recording the same job twice is a no-op.
func (r *DeadLettersRepository) Create(ctx context.Context, dl *models.NewDeadLetter) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate dead letter id: %w", err)
	}

	query := `
		INSERT INTO enrichment_dead_letters (id, job_id, ticket_id, text, delivery_count, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, id, dl.JobID, dl.TicketID, dl.Text, dl.DeliveryCount, dl.Reason); err != nil {
		return wrapError("create dead letter", err)
	}

	return nil
}

// List returns the most recent dead letters.
func (r *DeadLettersRepository) List(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	query := `
		SELECT id, job_id, ticket_id, text, delivery_count, reason, created_at
		FROM enrichment_dead_letters
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, wrapError("list dead letters", err)
	}
	defer rows.Close()

	out := []models.DeadLetter{}

	for rows.Next() {
		var dl models.DeadLetter
		if err := rows.Scan(&dl.ID, &dl.JobID, &dl.TicketID, &dl.Text, &dl.DeliveryCount, &dl.Reason, &dl.CreatedAt); err != nil {
			return nil, wrapError("scan dead letter", err)
		}

		out = append(out, dl)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate dead letters", err)
	}

	return out, nil
}

// HarvestDiscarded copies discarded queue jobs of jobKind that have no dead letter yet into the
// dead-letter table. It covers jobs discarded without passing through the error handler (for example
// stuck jobs rescued after their final attempt). Returns the number of rows recorded.
func (r *DeadLettersRepository) HarvestDiscarded(ctx context.Context, jobKind string, limit int) (int64, error) {
	query := `
		INSERT INTO enrichment_dead_letters (id, job_id, ticket_id, text, delivery_count, reason)
		SELECT gen_random_uuid(), j.id,
			COALESCE(j.args->>'ticket_id', ''),
			COALESCE(j.args->>'text', ''),
			j.attempt,
			COALESCE(j.errors[array_length(j.errors, 1)]->>'error', 'discarded')
		FROM river_job j
		WHERE j.kind = $1
			AND j.state = 'discarded'
			AND NOT EXISTS (SELECT 1 FROM enrichment_dead_letters d WHERE d.job_id = j.id)
		ORDER BY j.id
		LIMIT $2
		ON CONFLICT (job_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, jobKind, limit)
	if err != nil {
		return 0, wrapError("harvest discarded jobs", err)
	}

	return tag.RowsAffected(), nil
}
