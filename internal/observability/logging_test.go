package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogHandler_JSONAddsRequestID(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewLogHandler(&buf, "json", slog.LevelInfo))
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")

	logger.InfoContext(ctx, "intake: ticket created", "ticket_id", "t-1")
	logger.DebugContext(ctx, "suppressed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-123", record["request_id"])
	assert.Equal(t, "t-1", record["ticket_id"])
	assert.Equal(t, "intake: ticket created", record["msg"])
}

func TestNewLogHandler_Text(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewLogHandler(&buf, "text", slog.LevelDebug))
	logger.Debug("enrichment: job started", "job_id", 7)

	assert.Contains(t, buf.String(), "enrichment: job started")
	assert.Contains(t, buf.String(), "job_id")
}

func TestNormalizeReason(t *testing.T) {
	assert.Equal(t, OutcomePoison, NormalizeReason(OutcomePoison, AllowedJobOutcomes))
	assert.Equal(t, "other", NormalizeReason("exploded", AllowedJobOutcomes))
	assert.Equal(t, "ticket_stats", NormalizeCacheName("ticket_stats"))
	assert.Equal(t, "other", NormalizeCacheName("webhook_list"))
}

func TestNewMetrics_NilMeter(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m.Enrichment)
	assert.Nil(t, m.Queue)
	assert.Nil(t, m.Cache)
	assert.Nil(t, m.API)
}
