// Package googleai classifies and summarizes ticket text with the Google Gen AI SDK (Gemini API).
package googleai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/supportai/tickethub/internal/datatypes"
)

var (
	// ErrEmptyInput is returned when Classify or Summarize is called with empty input.
	ErrEmptyInput = errors.New("googleai: input text is empty")
	// ErrEmptyResponse is returned when the API response contains no text.
	ErrEmptyResponse = errors.New("googleai: empty response")
	// ErrInvalidCategory is returned when the model answers with a label outside the closed set.
	ErrInvalidCategory = errors.New("googleai: invalid category in response")
)

const (
	defaultModel = "gemini-2.0-flash"

	classifyInstruction = `You label customer support tickets. Choose exactly one category from: general, billing, technical.
Reply with a JSON object {"category": "<label>", "confidence": <number between 0 and 1>}.`

	summarizeInstruction = `Summarize the customer support ticket in one sentence of at most 30 words.
Reply with the summary only.`
)

// Client calls the Gemini generate-content API via the Google Gen AI SDK.
type Client struct {
	client *genai.Client
	model  string
}

// ClientOption configures the Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// WithModel sets the model name (e.g. gemini-2.0-flash). Empty uses default.
func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{model: defaultModel}
	for _, opt := range opts {
		opt(o)
	}

	if o.model == "" {
		o.model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	return &Client{client: genaiClient, model: o.model}, nil
}

type classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the model for a category and confidence as JSON.
func (c *Client) Classify(ctx context.Context, text string) (datatypes.Category, float64, error) {
	content, err := c.generate(ctx, classifyInstruction, text, "application/json")
	if err != nil {
		return datatypes.CategoryUnknown, 0, err
	}

	var out classification
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return datatypes.CategoryUnknown, 0, fmt.Errorf("googleai: decode classification: %w", err)
	}

	category, ok := datatypes.ParseCategory(out.Category)
	if !ok || category == datatypes.CategoryUnknown {
		return datatypes.CategoryUnknown, 0, fmt.Errorf("%w: %q", ErrInvalidCategory, out.Category)
	}

	return category, datatypes.RoundConfidence(out.Confidence), nil
}

// Summarize asks the model for a one-sentence summary.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, summarizeInstruction, text, "")
}

func (c *Client) generate(ctx context.Context, instruction, input, mimeType string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(input), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", ErrEmptyResponse
	}

	return out, nil
}
