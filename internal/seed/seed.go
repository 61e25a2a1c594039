// Package seed bulk-loads historical support tickets from a CSV export.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/models"
	"github.com/supportai/tickethub/internal/repository"
)

// DefaultBatchSize is the number of tickets written per transaction.
const DefaultBatchSize = 500

const maxTags = 8

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Store persists seeded tickets together with their enrichment results.
type Store interface {
	CreateSeeded(ctx context.Context, rows []repository.SeedRow) (int, error)
}

// Options controls which rows are loaded and how they are batched.
type Options struct {
	// Language keeps only rows whose language column matches. Empty loads every row.
	Language  string
	BatchSize int
}

// Stats summarizes a load.
type Stats struct {
	Rows            int
	Loaded          int
	SkippedLanguage int
	SkippedEmpty    int
	SkippedInvalid  int
}

// Load reads a header-driven CSV from r and writes each kept row as a ticket with one
// enrichment result. Columns beyond the known set are ignored.
func Load(ctx context.Context, r io.Reader, store Store, opts Options) (*Stats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := newColumns(header)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	batch := make([]repository.SeedRow, 0, opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		n, err := store.CreateSeeded(ctx, batch)
		if err != nil {
			return fmt.Errorf("write batch ending at row %d: %w", stats.Rows, err)
		}

		stats.Loaded += n
		batch = batch[:0]

		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}

		stats.Rows++

		if opts.Language != "" && !strings.EqualFold(cols.get(record, "language"), opts.Language) {
			stats.SkippedLanguage++

			continue
		}

		if containsNullByte(record) {
			stats.SkippedInvalid++
			slog.Warn("seed: skipping ticket with NUL byte", "row", stats.Rows, "code", "INVALID_TICKET")

			continue
		}

		row, ok := cols.seedRow(record)
		if !ok {
			stats.SkippedEmpty++
			slog.Warn("seed: skipping ticket without subject or body", "row", stats.Rows, "code", "EMPTY_TICKET")

			continue
		}

		batch = append(batch, row)
		if len(batch) == opts.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	return stats, nil
}

// MapCategory derives a category from a queue name.
func MapCategory(queue string) datatypes.Category {
	q := strings.ToLower(queue)

	switch {
	case strings.Contains(q, "technical") || strings.Contains(q, "it support"):
		return datatypes.CategoryTechnical
	case strings.Contains(q, "billing") || strings.Contains(q, "payments"):
		return datatypes.CategoryBilling
	default:
		return datatypes.CategoryGeneral
	}
}

// MapConfidence derives a confidence from a priority label. Unlisted labels, "high" included, get 0.5.
func MapConfidence(priority string) float64 {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "critical":
		return 0.9
	case "medium":
		return 0.6
	case "low":
		return 0.3
	default:
		return 0.5
	}
}

// containsNullByte reports whether any field holds a NUL byte, which Postgres text columns reject.
func containsNullByte(record []string) bool {
	for _, field := range record {
		if strings.IndexByte(field, 0) >= 0 {
			return true
		}
	}

	return false
}

// columns maps lower-cased header names to record indexes.
type columns map[string]int

func newColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	for _, required := range []string{"subject", "body"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	return cols, nil
}

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[i])
}

func (c columns) optional(record []string, name string) *string {
	if v := c.get(record, name); v != "" {
		return &v
	}

	return nil
}

func (c columns) seedRow(record []string) (repository.SeedRow, bool) {
	subject := c.get(record, "subject")
	body := c.get(record, "body")

	text := body
	if subject != "" {
		text = subject + ". " + body
	}

	if subject == "" && body == "" {
		return repository.SeedRow{}, false
	}

	var tags []string

	for i := 1; i <= maxTags; i++ {
		if tag := c.get(record, "tag_"+strconv.Itoa(i)); tag != "" {
			tags = append(tags, tag)
		}
	}

	answer := c.get(record, "answer")
	if answer == "" {
		answer = c.get(record, "answers")
	}

	queue := c.get(record, "queue")

	return repository.SeedRow{
		Ticket: models.NewTicket{
			Subject:  c.optional(record, "subject"),
			Body:     c.optional(record, "body"),
			Text:     text,
			Queue:    c.optional(record, "queue"),
			Priority: c.optional(record, "priority"),
			Language: c.optional(record, "language"),
			Tags:     tags,
		},
		Category:   MapCategory(queue),
		Confidence: MapConfidence(c.get(record, "priority")),
		Summary:    answer,
	}, true
}
