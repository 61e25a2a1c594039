package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/supportai/tickethub/internal/models"
)

type flakyInserter struct {
	mu        sync.Mutex
	callCount int
	failUntil int // InsertEnrichment fails until callCount reaches this; then succeeds.
	inserted  []EnrichmentArgs
}

func (f *flakyInserter) InsertEnrichment(_ context.Context, args EnrichmentArgs) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.callCount++
	if f.callCount < f.failUntil {
		return errors.New("transient error")
	}

	f.inserted = append(f.inserted, args)

	return nil
}

type recordingRiverClient struct {
	last insertCall
	err  error
}

type insertCall struct {
	args river.JobArgs
	opts *river.InsertOpts
}

func (c *recordingRiverClient) Insert(
	_ context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	c.last = insertCall{args: args, opts: opts}
	if c.err != nil {
		return nil, c.err
	}

	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: 1}}, nil
}

type fakeDeadLetters struct {
	created []*models.NewDeadLetter
	err     error
}

func (f *fakeDeadLetters) Create(_ context.Context, dl *models.NewDeadLetter) error {
	if f.err != nil {
		return f.err
	}

	f.created = append(f.created, dl)

	return nil
}

type fakeStaleLister struct {
	tickets   []models.Ticket
	err       error
	olderThan time.Time
	jobKind   string
}

func (f *fakeStaleLister) ListStaleUnenriched(
	_ context.Context, jobKind string, olderThan time.Time, _ int,
) ([]models.Ticket, error) {
	f.jobKind = jobKind
	f.olderThan = olderThan

	return f.tickets, f.err
}

type fakeHarvester struct {
	harvested int64
	err       error
}

func (f *fakeHarvester) HarvestDiscarded(_ context.Context, _ string, _ int) (int64, error) {
	return f.harvested, f.err
}

type recordingMetrics struct {
	mu          sync.Mutex
	enqueues    []string
	outcomes    []string
	deadLetters []string
	reconciled  map[string]int64
}

func (m *recordingMetrics) RecordTicketCreated(context.Context) {}

func (m *recordingMetrics) RecordEnqueue(_ context.Context, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enqueues = append(m.enqueues, status)
}

func (m *recordingMetrics) RecordJobOutcome(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) RecordInferenceDuration(context.Context, string, time.Duration, string) {}

func (m *recordingMetrics) RecordDeadLetter(_ context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deadLetters = append(m.deadLetters, reason)
}

func (m *recordingMetrics) RecordReconciled(_ context.Context, action string, count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reconciled == nil {
		m.reconciled = map[string]int64{}
	}

	m.reconciled[action] += count
}
