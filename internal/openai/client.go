// Package openai classifies and summarizes ticket text with the official OpenAI Go SDK.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/supportai/tickethub/internal/datatypes"
)

var (
	// ErrEmptyInput is returned when Classify or Summarize is called with empty input.
	ErrEmptyInput = errors.New("openai: input text is empty")
	// ErrNoChoiceInResponse is returned when the API response contains no message.
	ErrNoChoiceInResponse = errors.New("openai: no choice in response")
	// ErrInvalidCategory is returned when the model answers with a label outside the closed set.
	ErrInvalidCategory = errors.New("openai: invalid category in response")
)

const (
	defaultModel = "gpt-4o-mini"

	classifyPrompt = `You label customer support tickets. Choose exactly one category from: general, billing, technical.
Reply with a JSON object {"category": "<label>", "confidence": <number between 0 and 1>} and nothing else.`

	summarizePrompt = `Summarize the customer support ticket in one sentence of at most 30 words.
Reply with the summary only.`
)

// Client calls the OpenAI chat completions API via the official SDK.
type Client struct {
	sdk   openaisdk.Client
	model string
}

// ClientOption configures the Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// WithModel sets the chat model name. Empty uses gpt-4o-mini.
func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client. The SDK's own retries are disabled when set.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// NewClient creates an OpenAI chat client using the official SDK.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	o := &clientOptions{model: defaultModel}
	for _, opt := range opts {
		opt(o)
	}

	if o.model == "" {
		o.model = defaultModel
	}

	sdkOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(o.baseURL))
	}

	if o.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.httpClient), option.WithMaxRetries(0))
	}

	return &Client{
		sdk:   openaisdk.NewClient(sdkOpts...),
		model: o.model,
	}
}

type classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the model for a category and confidence in JSON mode.
func (c *Client) Classify(ctx context.Context, text string) (datatypes.Category, float64, error) {
	content, err := c.complete(ctx, classifyPrompt, text, true)
	if err != nil {
		return datatypes.CategoryUnknown, 0, err
	}

	var out classification
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return datatypes.CategoryUnknown, 0, fmt.Errorf("openai: decode classification: %w", err)
	}

	category, ok := datatypes.ParseCategory(out.Category)
	if !ok || category == datatypes.CategoryUnknown {
		return datatypes.CategoryUnknown, 0, fmt.Errorf("%w: %q", ErrInvalidCategory, out.Category)
	}

	return category, datatypes.RoundConfidence(out.Confidence), nil
}

// Summarize asks the model for a one-sentence summary.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, summarizePrompt, text, false)
}

func (c *Client) complete(ctx context.Context, system, input string, jsonMode bool) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}

	params := openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(input),
		},
		Temperature: openaisdk.Float(0),
	}

	if jsonMode {
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoiceInResponse
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
