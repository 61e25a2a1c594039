package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/jobs"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Run(ctx context.Context) (*jobs.ReconcileStats, error) {
	args := m.Called(ctx)

	stats, _ := args.Get(0).(*jobs.ReconcileStats)

	return stats, args.Error(1)
}

func TestReconcileWorker_Work(t *testing.T) {
	job := &river.Job[jobs.ReconcileArgs]{JobRow: &rivertype.JobRow{ID: 1}}

	t.Run("success", func(t *testing.T) {
		r := &mockReconciler{}
		r.On("Run", mock.Anything).Return(&jobs.ReconcileStats{Harvested: 1, Reenqueued: 3}, nil).Once()

		require.NoError(t, NewReconcileWorker(r).Work(context.Background(), job))
		r.AssertExpectations(t)
	})

	t.Run("error is returned", func(t *testing.T) {
		r := &mockReconciler{}
		r.On("Run", mock.Anything).Return(nil, errors.New("db down")).Once()

		err := NewReconcileWorker(r).Work(context.Background(), job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		r.AssertExpectations(t)
	})
}
