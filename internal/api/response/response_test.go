package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/huberrors"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "validation",
			err:        huberrors.NewValidationError("text", "provide either text or both subject and body"),
			wantStatus: http.StatusBadRequest,
			wantCode:   huberrors.CodeValidation,
			wantDetail: "provide either text or both subject and body",
		},
		{
			name:       "not found",
			err:        huberrors.NewNotFoundError("ticket", "ticket not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   huberrors.CodeNotFound,
			wantDetail: "ticket not found",
		},
		{
			name:       "internal errors hide detail",
			err:        errors.New("pq: password authentication failed for user admin"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   huberrors.CodeInternal,
			wantDetail: "An unexpected error occurred",
		},
		{
			name:       "transient store errors are retryable",
			err:        huberrors.NewTransientError("insert ticket", errors.New("conn reset")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   huberrors.CodeTransientStore,
			wantDetail: "The service is temporarily unavailable, please retry",
		},
		{
			name:       "wrapped transient store errors are retryable",
			err:        fmt.Errorf("create ticket: %w", huberrors.NewTransientError("insert ticket", errors.New("deadlock"))),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   huberrors.CodeTransientStore,
			wantDetail: "The service is temporarily unavailable, please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/requests", nil)

			RespondServiceError(rec, req, "test", tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem ProblemDetails
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantCode, problem.Code)
			assert.Equal(t, tt.wantDetail, problem.Detail)
			assert.Equal(t, "about:blank", problem.Type)

			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]string{"id": "x"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"x"}`, rec.Body.String())
}
