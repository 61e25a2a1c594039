package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/datatypes"
	"github.com/supportai/tickethub/internal/googleai"
	"github.com/supportai/tickethub/internal/observability"
	"github.com/supportai/tickethub/internal/openai"
)

// NewProvider builds the inference backend selected by INFERENCE_PROVIDER. Hosted providers share a
// retrying HTTP client bounded by the enrichment job timeout.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	httpClient := NewHTTPClient(cfg.InferenceHTTPRetries, cfg.EnrichmentJobTimeout/2)

	switch cfg.InferenceProvider {
	case config.InferenceProviderOpenAI:
		return openai.NewClient(cfg.OpenAIAPIKey,
			openai.WithModel(cfg.OpenAIModel),
			openai.WithBaseURL(cfg.OpenAIBaseURL),
			openai.WithHTTPClient(httpClient),
		), nil
	case config.InferenceProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.GeminiAPIKey,
			googleai.WithModel(cfg.GeminiModel),
			googleai.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, err
		}

		return client, nil
	case config.InferenceProviderKeyword, "":
		return NewKeywordProvider(), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
}

// Instrumented wraps a Provider and records call durations.
type Instrumented struct {
	inner   Provider
	metrics observability.EnrichmentMetrics
}

// NewInstrumented returns inner unchanged when metrics is nil.
func NewInstrumented(inner Provider, metrics observability.EnrichmentMetrics) Provider {
	if metrics == nil {
		return inner
	}

	return &Instrumented{inner: inner, metrics: metrics}
}

// Classify delegates to the wrapped provider.
func (p *Instrumented) Classify(ctx context.Context, text string) (datatypes.Category, float64, error) {
	start := time.Now()
	category, confidence, err := p.inner.Classify(ctx, text)
	p.metrics.RecordInferenceDuration(ctx, "classify", time.Since(start), status(err))

	return category, confidence, err
}

// Summarize delegates to the wrapped provider.
func (p *Instrumented) Summarize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	summary, err := p.inner.Summarize(ctx, text)
	p.metrics.RecordInferenceDuration(ctx, "summarize", time.Since(start), status(err))

	return summary, err
}

func status(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
