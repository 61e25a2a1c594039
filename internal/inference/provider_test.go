package inference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/openai"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, &config.Config{InferenceProvider: config.InferenceProviderKeyword})
	require.NoError(t, err)
	assert.IsType(t, &KeywordProvider{}, p)

	p, err = NewProvider(ctx, &config.Config{
		InferenceProvider:    config.InferenceProviderOpenAI,
		OpenAIAPIKey:         "sk-test",
		EnrichmentJobTimeout: time.Minute,
	})
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, p)

	_, err = NewProvider(ctx, &config.Config{InferenceProvider: "oracle"})
	require.Error(t, err)
}

func TestNewHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(3, time.Second)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

type stubProvider struct {
	err error
}

func (s stubProvider) Classify(context.Context, string) (datatypes.Category, float64, error) {
	return datatypes.CategoryBilling, 0.8, s.err
}

func (s stubProvider) Summarize(context.Context, string) (string, error) {
	return "summary", s.err
}

type durationRecorder struct {
	ops      []string
	statuses []string
}

func (d *durationRecorder) RecordTicketCreated(context.Context)             {}
func (d *durationRecorder) RecordEnqueue(context.Context, string)           {}
func (d *durationRecorder) RecordJobOutcome(context.Context, string)        {}
func (d *durationRecorder) RecordDeadLetter(context.Context, string)        {}
func (d *durationRecorder) RecordReconciled(context.Context, string, int64) {}

func (d *durationRecorder) RecordInferenceDuration(_ context.Context, op string, _ time.Duration, status string) {
	d.ops = append(d.ops, op)
	d.statuses = append(d.statuses, status)
}

func TestInstrumented(t *testing.T) {
	rec := &durationRecorder{}
	p := NewInstrumented(stubProvider{}, rec)

	_, _, err := p.Classify(context.Background(), "x")
	require.NoError(t, err)
	_, err = p.Summarize(context.Background(), "x")
	require.NoError(t, err)

	failing := NewInstrumented(stubProvider{err: errors.New("quota")}, rec)
	_, err = failing.Summarize(context.Background(), "x")
	require.Error(t, err)

	assert.Equal(t, []string{"classify", "summarize", "summarize"}, rec.ops)
	assert.Equal(t, []string{"ok", "ok", "error"}, rec.statuses)

	assert.IsType(t, stubProvider{}, NewInstrumented(stubProvider{}, nil))
}
