package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/observability"
)

type tooLargeCounter struct {
	count int
}

func (c *tooLargeCounter) RecordRequestBodyTooLarge(context.Context) {
	c.count++
}

type requestRecorder struct {
	routes   []string
	statuses []string
}

func (r *requestRecorder) RecordRequest(_ context.Context, _, route, statusClass string, _ time.Duration) {
	r.routes = append(r.routes, route)
	r.statuses = append(r.statuses, statusClass)
}

func (r *requestRecorder) RecordRequestBodyTooLarge(context.Context) {}

var _ observability.APIMetrics = (*requestRecorder)(nil)

func readAllHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "read failed", http.StatusBadRequest)

			return
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestMaxBody(t *testing.T) {
	t.Run("oversized body returns 413", func(t *testing.T) {
		counter := &tooLargeCounter{}
		handler := MaxBody(8, counter)(readAllHandler(http.StatusCreated))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(strings.Repeat("x", 64))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, 1, counter.count)
		assert.NotContains(t, rec.Body.String(), "read failed")
	})

	t.Run("body within limit passes through", func(t *testing.T) {
		counter := &tooLargeCounter{}
		handler := MaxBody(64, counter)(readAllHandler(http.StatusCreated))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader("small")))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
		assert.Zero(t, counter.count)
	})

	t.Run("GET is not limited", func(t *testing.T) {
		handler := MaxBody(1, nil)(readAllHandler(http.StatusOK))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled when non-positive", func(t *testing.T) {
		handler := MaxBody(0, nil)(readAllHandler(http.StatusOK))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(strings.Repeat("x", 64))))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	var seen string

	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(observability.RequestIDKey).(string)
	}))

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("generates id when missing or oversized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", maxRequestIDLength+1))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.NotEmpty(t, seen)
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("replaces id with spaces", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc 123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.NotEqual(t, "abc 123", seen)
		assert.Len(t, seen, 36)
	})
}

func TestMetrics(t *testing.T) {
	recorder := &requestRecorder{}
	handler := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stats" {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte("{}"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/requests/550e8400-e29b-41d4-a716-446655440000", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, []string{"/requests/{id}", "/stats"}, recorder.routes)
	assert.Equal(t, []string{"2xx", "5xx"}, recorder.statuses)
}

func TestMetrics_NilRecorderIsPassthrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()

	Metrics(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/requests", "/requests"},
		{"/requests/550e8400-e29b-41d4-a716-446655440000", "/requests/{id}"},
		{"/requests/not-a-uuid", "/requests/{id}"},
		{"/stats", "/stats"},
		{"/dead-letters", "/dead-letters"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeRoute(tt.path))
		})
	}
}

func TestStatusToClass(t *testing.T) {
	assert.Equal(t, "2xx", statusToClass(http.StatusCreated))
	assert.Equal(t, "4xx", statusToClass(http.StatusNotFound))
	assert.Equal(t, "5xx", statusToClass(http.StatusServiceUnavailable))
	assert.Equal(t, "unknown", statusToClass(0))
}

func TestLogging_RecordsStatus(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
