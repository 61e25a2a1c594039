package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/models"
)

type mockDeadLettersRepo struct {
	gotLimit int
	letters  []models.DeadLetter
	err      error
}

func (m *mockDeadLettersRepo) List(_ context.Context, limit int) ([]models.DeadLetter, error) {
	m.gotLimit = limit

	return m.letters, m.err
}

func TestDeadLettersHandler_List(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		repo := &mockDeadLettersRepo{}
		handler := NewDeadLettersHandler(repo)
		rec := httptest.NewRecorder()

		handler.List(rec, httptest.NewRequest(http.MethodGet, "/dead-letters", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, DefaultDeadLettersLimit, repo.gotLimit)
		assert.JSONEq(t, `{"data":[],"limit":50}`, rec.Body.String())
	})

	t.Run("explicit limit", func(t *testing.T) {
		repo := &mockDeadLettersRepo{letters: []models.DeadLetter{{
			ID: uuid.New(), JobID: 7, TicketID: uuid.NewString(), Text: "hi", DeliveryCount: 5, Reason: "max_attempts: boom",
		}}}
		handler := NewDeadLettersHandler(repo)
		rec := httptest.NewRecorder()

		handler.List(rec, httptest.NewRequest(http.MethodGet, "/dead-letters?limit=10", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 10, repo.gotLimit)

		var got models.ListDeadLettersResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got.Data, 1)
		assert.Equal(t, int64(7), got.Data[0].JobID)
		assert.Equal(t, 5, got.Data[0].DeliveryCount)
	})

	t.Run("limit above maximum returns 400", func(t *testing.T) {
		repo := &mockDeadLettersRepo{}
		handler := NewDeadLettersHandler(repo)
		rec := httptest.NewRecorder()

		handler.List(rec, httptest.NewRequest(http.MethodGet, "/dead-letters?limit=201", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, repo.gotLimit)
	})

	t.Run("repository error returns 500", func(t *testing.T) {
		handler := NewDeadLettersHandler(&mockDeadLettersRepo{err: errors.New("boom")})
		rec := httptest.NewRecorder()

		handler.List(rec, httptest.NewRequest(http.MethodGet, "/dead-letters", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
