package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/api/handlers"
	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/huberrors"
	"github.com/supportai/tickethub/internal/models"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubTickets struct{}

func (stubTickets) CreateTicket(_ context.Context, req *models.CreateTicketRequest) (*models.Ticket, error) {
	return &models.Ticket{ID: uuid.New(), Text: *req.Text}, nil
}

func (stubTickets) GetTicket(context.Context, uuid.UUID) (*models.TicketWithEnrichment, error) {
	return nil, huberrors.NewNotFoundError("ticket", "ticket not found")
}

func (stubTickets) ListTickets(context.Context, *models.ListTicketsFilters) (*models.ListTicketsResponse, error) {
	return &models.ListTicketsResponse{Data: []models.Ticket{}, Limit: models.ListTicketsPageSize}, nil
}

func (stubTickets) GetStats(context.Context) (*models.StatsResponse, error) {
	return &models.StatsResponse{Data: []models.StatsBucket{}}, nil
}

type stubDeadLetters struct{}

func (stubDeadLetters) List(context.Context, int) ([]models.DeadLetter, error) {
	return nil, nil
}

func newTestHandler(t *testing.T, metricsHandler http.Handler) http.Handler {
	t.Helper()

	cfg := &config.Config{Port: "0", MaxBodyBytes: 1024}
	server := newHTTPServer(cfg, routes{
		health:         handlers.NewHealthHandler(okPinger{}),
		tickets:        handlers.NewTicketsHandler(stubTickets{}),
		deadLetters:    handlers.NewDeadLettersHandler(stubDeadLetters{}),
		metricsHandler: metricsHandler,
	}, nil, nil, nil)

	require.NotNil(t, server.Handler)

	return server.Handler
}

func TestRoutes(t *testing.T) {
	handler := newTestHandler(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/requests", `{"text":"printer on fire"}`, http.StatusCreated},
		{http.MethodGet, "/requests", "", http.StatusOK},
		{http.MethodGet, "/requests/" + uuid.NewString(), "", http.StatusNotFound},
		{http.MethodGet, "/requests/garbage", "", http.StatusNotFound},
		{http.MethodGet, "/stats", "", http.StatusOK},
		{http.MethodGet, "/dead-letters", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusNotFound},
		{http.MethodDelete, "/requests", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRoutes_OversizedBody(t *testing.T) {
	handler := newTestHandler(t, nil)
	body := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRoutes_MetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}
