// Package inference defines the classification and summarization capability used by enrichment,
// with a local keyword fallback and adapters for hosted providers.
package inference

import (
	"context"

	"github.com/supportai/tickethub/internal/datatypes"
)

// MaxSummaryWords bounds every stored summary.
const MaxSummaryWords = 30

// Classifier assigns a ticket text to one of the classifiable categories.
type Classifier interface {
	Classify(ctx context.Context, text string) (datatypes.Category, float64, error)
}

// Summarizer produces a short summary of a ticket text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Provider is a complete inference backend.
type Provider interface {
	Classifier
	Summarizer
}
