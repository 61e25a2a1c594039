package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiverJobInserter_InsertEnrichment(t *testing.T) {
	client := &recordingRiverClient{}
	inserter := NewRiverJobInserter(client, 5)

	args := EnrichmentArgs{TicketID: "0192d3c4-5e6f-7a8b-9c0d-1e2f3a4b5c6d", Text: "refund please"}
	require.NoError(t, inserter.InsertEnrichment(context.Background(), args))

	assert.Equal(t, args, client.last.args)
	require.NotNil(t, client.last.opts)
	assert.Equal(t, QueueEnrichment, client.last.opts.Queue)
	assert.Equal(t, 5, client.last.opts.MaxAttempts)
	assert.True(t, client.last.opts.UniqueOpts.ByArgs)
	assert.Contains(t, client.last.opts.UniqueOpts.ByState, rivertype.JobStatePending)
	assert.NotContains(t, client.last.opts.UniqueOpts.ByState, rivertype.JobStateCompleted)
}

func TestRiverJobInserter_InsertEnrichment_Error(t *testing.T) {
	client := &recordingRiverClient{err: errors.New("connection refused")}
	inserter := NewRiverJobInserter(client, 5)

	err := inserter.InsertEnrichment(context.Background(), EnrichmentArgs{TicketID: "x", Text: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
