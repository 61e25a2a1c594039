//go:build integration

package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/testutil"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestRepositories_Integration(t *testing.T) {
	pool := testutil.NewPostgres(t)
	ctx := context.Background()

	tickets := NewTicketsRepository(pool)
	results := NewEnrichmentResultsRepository(pool)
	deadLetters := NewDeadLettersRepository(pool)

	t.Run("ticket without result has null AI fields", func(t *testing.T) {
		created, err := tickets.Create(ctx, &models.NewTicket{Text: "printer on fire"})
		require.NoError(t, err)

		got, err := tickets.GetWithEnrichment(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "printer on fire", got.Text)
		assert.Nil(t, got.Category)
		assert.Nil(t, got.Confidence)
		assert.Nil(t, got.Summary)
	})

	t.Run("missing ticket is not found", func(t *testing.T) {
		_, err := tickets.GetWithEnrichment(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, huberrors.ErrNotFound)
	})

	t.Run("latest result wins and job redelivery is idempotent", func(t *testing.T) {
		created, err := tickets.Create(ctx, &models.NewTicket{Text: "refund please"})
		require.NoError(t, err)

		first, ok, err := results.Insert(ctx, &models.NewEnrichmentResult{
			TicketID: created.ID, JobID: int64Ptr(1001), Category: datatypes.CategoryGeneral, Confidence: 0.4, Summary: "first",
		})
		require.NoError(t, err)
		assert.True(t, ok)

		again, ok, err := results.Insert(ctx, &models.NewEnrichmentResult{
			TicketID: created.ID, JobID: int64Ptr(1001), Category: datatypes.CategoryTechnical, Confidence: 0.9, Summary: "dup",
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, first.ID, again.ID)

		_, ok, err = results.Insert(ctx, &models.NewEnrichmentResult{
			TicketID: created.ID, JobID: int64Ptr(1002), Category: datatypes.CategoryBilling, Confidence: 0.876, Summary: "second",
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := tickets.GetWithEnrichment(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		assert.Equal(t, datatypes.CategoryBilling, *got.Category)
		assert.InDelta(t, 0.88, *got.Confidence, 1e-9)
		assert.Equal(t, "second", *got.Summary)

		all, err := results.ListByTicket(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("result for unknown ticket is a poison message", func(t *testing.T) {
		_, _, err := results.Insert(ctx, &models.NewEnrichmentResult{
			TicketID: uuid.Must(uuid.NewV7()), JobID: int64Ptr(2001), Category: datatypes.CategoryUnknown, Summary: "x",
		})
		assert.ErrorIs(t, err, huberrors.ErrPoisonMessage)
	})

	t.Run("list returns only enriched tickets and filters by category or queue", func(t *testing.T) {
		pending, err := tickets.Create(ctx, &models.NewTicket{Text: "still pending"})
		require.NoError(t, err)

		n, err := tickets.CreateSeeded(ctx, []SeedRow{
			{Ticket: models.NewTicket{Text: "vpn down", Queue: strPtr("Technical Support")}, Category: datatypes.CategoryTechnical, Confidence: 0.9, Summary: "vpn"},
			{Ticket: models.NewTicket{Text: "invoice wrong", Queue: strPtr("Billing and Payments")}, Category: datatypes.CategoryBilling, Confidence: 0.6, Summary: "invoice"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		all, err := tickets.ListEnriched(ctx, nil, models.ListTicketsPageSize)
		require.NoError(t, err)
		for _, tk := range all {
			assert.NotEqual(t, pending.ID, tk.ID)
		}

		technical, err := tickets.ListEnriched(ctx, strPtr("technical"), models.ListTicketsPageSize)
		require.NoError(t, err)
		require.Len(t, technical, 1)
		assert.Equal(t, "vpn down", technical[0].Text)

		byQueue, err := tickets.ListEnriched(ctx, strPtr("billing and payments"), models.ListTicketsPageSize)
		require.NoError(t, err)
		require.Len(t, byQueue, 1)
		assert.Equal(t, "invoice wrong", byQueue[0].Text)

		limited, err := tickets.ListEnriched(ctx, nil, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("stats honour the window", func(t *testing.T) {
		old, err := tickets.Create(ctx, &models.NewTicket{Text: "ancient", Queue: strPtr("archive")})
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `UPDATE tickets SET created_at = now() - interval '8 days' WHERE id = $1`, old.ID)
		require.NoError(t, err)

		buckets, err := tickets.CountByCategorySince(ctx, time.Now().Add(-7*24*time.Hour))
		require.NoError(t, err)

		counts := map[string]int64{}
		for _, b := range buckets {
			counts[b.Category] = b.Count
		}

		assert.NotContains(t, counts, "archive")
		assert.Equal(t, int64(1), counts["Technical Support"])
		assert.Equal(t, int64(1), counts["billing"])
		assert.GreaterOrEqual(t, counts["uncategorized"], int64(1))
	})

	t.Run("dead letters are recorded once", func(t *testing.T) {
		dl := &models.NewDeadLetter{JobID: 3001, TicketID: "abc", Text: "t", DeliveryCount: 5, Reason: "boom"}
		require.NoError(t, deadLetters.Create(ctx, dl))
		require.NoError(t, deadLetters.Create(ctx, dl))

		list, err := deadLetters.List(ctx, 10)
		require.NoError(t, err)

		count := 0
		for _, d := range list {
			if d.JobID == 3001 {
				count++
				assert.Equal(t, 5, d.DeliveryCount)
			}
		}
		assert.Equal(t, 1, count)

		harvested, err := deadLetters.HarvestDiscarded(ctx, "ticket_enrichment", 100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), harvested)
	})

	t.Run("stale unenriched tickets are listed for reconciliation", func(t *testing.T) {
		stale, err := tickets.Create(ctx, &models.NewTicket{Text: "lost job"})
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `UPDATE tickets SET created_at = now() - interval '1 hour' WHERE id = $1`, stale.ID)
		require.NoError(t, err)

		list, err := tickets.ListStaleUnenriched(ctx, "ticket_enrichment", time.Now().Add(-10*time.Minute), 100)
		require.NoError(t, err)

		ids := make([]uuid.UUID, 0, len(list))
		for _, tk := range list {
			ids = append(ids, tk.ID)
		}
		assert.Contains(t, ids, stale.ID)
	})

	t.Run("seeded tickets keep long metadata", func(t *testing.T) {
		subject := strings.Repeat("s", 300)
		body := strings.Repeat("b", 2500)
		queue := "Escalations " + strings.Repeat("q", 100)
		language := strings.Repeat("l", 20)

		n, err := tickets.CreateSeeded(ctx, []SeedRow{{
			Ticket: models.NewTicket{
				Subject:  &subject,
				Body:     &body,
				Text:     subject + ". " + body,
				Queue:    &queue,
				Priority: strPtr(strings.Repeat("p", 40)),
				Language: &language,
			},
			Category:   datatypes.CategoryGeneral,
			Confidence: 0.5,
			Summary:    "long",
		}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		list, err := tickets.ListEnriched(ctx, &queue, models.ListTicketsPageSize)
		require.NoError(t, err)
		require.Len(t, list, 1)

		got := list[0]
		require.NotNil(t, got.Body)
		assert.Len(t, *got.Body, 2500)
		require.NotNil(t, got.Language)
		assert.Equal(t, language, *got.Language)
		require.NotNil(t, got.Subject)
		assert.Len(t, *got.Subject, 300)
	})
}
