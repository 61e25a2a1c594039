//go:build integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                   "0",
		MaxBodyBytes:           64 << 10,
		ShutdownTimeout:        5 * time.Second,
		WorkerEnabled:          true,
		EnrichmentWorkerCount:  2,
		EnrichmentMaxAttempts:  3,
		EnrichmentJobTimeout:   10 * time.Second,
		EnrichmentRescueAfter:  time.Minute,
		EnrichmentRateLimit:    100,
		EnrichmentRateBurst:    10,
		EnqueueMaxRetries:      1,
		EnqueueInitialBackoff:  10 * time.Millisecond,
		EnqueueMaxBackoff:      50 * time.Millisecond,
		ReconcileInterval:      time.Hour,
		ReconcileStaleAfter:    time.Hour,
		StatsCacheTTL:          time.Millisecond,
		InferenceProvider:      config.InferenceProviderKeyword,
		MetricsExporter:        config.MetricsExporterNone,
		QueueDepthPollInterval: time.Second,
	}
}

func TestEndToEnd_SubmitEnrichQuery(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewPostgres(t)

	app, err := NewApp(ctx, testConfig(), db)
	require.NoError(t, err)

	require.NoError(t, app.river.Start(ctx))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = app.river.Stop(stopCtx)
	})

	srv := httptest.NewServer(app.server.Handler)
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/requests", "application/json",
		strings.NewReader(`{"subject":"Invoice","body":"I was charged twice for my subscription payment."}`))
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Ticket
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Invoice. I was charged twice for my subscription payment.", created.Text)

	var enriched models.TicketWithEnrichment

	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/requests/" + created.ID.String())
		if err != nil {
			return false
		}
		defer r.Body.Close()

		if r.StatusCode != http.StatusOK {
			return false
		}

		enriched = models.TicketWithEnrichment{}

		return json.NewDecoder(r.Body).Decode(&enriched) == nil && enriched.Category != nil
	}, 15*time.Second, 100*time.Millisecond)

	assert.Equal(t, datatypes.CategoryBilling, *enriched.Category)
	require.NotNil(t, enriched.Confidence)
	assert.GreaterOrEqual(t, *enriched.Confidence, 0.0)
	assert.LessOrEqual(t, *enriched.Confidence, 1.0)
	require.NotNil(t, enriched.Summary)
	assert.NotEmpty(t, *enriched.Summary)

	listResp, err := http.Get(srv.URL + "/requests?category=billing")
	require.NoError(t, err)

	defer listResp.Body.Close()

	var list []models.Ticket
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	statsResp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)

	defer statsResp.Body.Close()

	var stats []models.StatsBucket
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Contains(t, stats, models.StatsBucket{Category: "billing", Count: 1})
}
