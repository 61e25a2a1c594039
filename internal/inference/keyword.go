package inference

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/supportai/tickethub/internal/datatypes"
)

// ErrEmptyText is returned when inference is asked to process blank text.
var ErrEmptyText = errors.New("inference: text is empty")

var categoryKeywords = map[datatypes.Category][]string{
	datatypes.CategoryBilling: {
		"billing", "bill", "invoice", "payment", "pay", "paid", "refund", "charge", "charged",
		"subscription", "price", "pricing", "credit", "card", "receipt", "plan", "fee",
	},
	datatypes.CategoryTechnical: {
		"error", "bug", "crash", "crashes", "login", "log", "password", "install", "server", "api",
		"timeout", "broken", "outage", "down", "sync", "update", "configure", "network", "slow",
	},
	datatypes.CategoryGeneral: {
		"question", "information", "info", "hours", "contact", "feedback", "account", "help",
		"feature", "request", "thanks",
	},
}

// KeywordProvider classifies by keyword overlap and summarizes by extracting the leading words.
// It needs no network and never fails on non-empty text.
type KeywordProvider struct{}

// NewKeywordProvider creates a KeywordProvider.
func NewKeywordProvider() *KeywordProvider {
	return &KeywordProvider{}
}

// Classify scores each category by keyword hits. Confidence is the Laplace-smoothed share of hits
// for the winning category, so text without any hits maps to general with one-third confidence.
func (p *KeywordProvider) Classify(_ context.Context, text string) (datatypes.Category, float64, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return datatypes.CategoryUnknown, 0, ErrEmptyText
	}

	hits := make(map[datatypes.Category]int, len(categoryKeywords))
	total := 0

	for _, w := range words {
		for cat, keywords := range categoryKeywords {
			for _, k := range keywords {
				if w == k {
					hits[cat]++
					total++
				}
			}
		}
	}

	best := datatypes.CategoryGeneral
	for _, cat := range datatypes.ClassifiableCategories() {
		if hits[cat] > hits[best] {
			best = cat
		}
	}

	labels := len(datatypes.ClassifiableCategories())
	confidence := float64(hits[best]+1) / float64(total+labels)

	return best, datatypes.RoundConfidence(confidence), nil
}

// Summarize returns the first sentence, or the leading words when no sentence break is found,
// bounded to MaxSummaryWords.
func (p *KeywordProvider) Summarize(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	if i := strings.IndexAny(text, ".!?\n"); i > 0 {
		text = text[:i+1]
	}

	return TruncateWords(strings.TrimSpace(text), MaxSummaryWords), nil
}

// TruncateWords keeps at most n whitespace-separated words of s.
func TruncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}

	return strings.Join(words[:n], " ")
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var _ Provider = (*KeywordProvider)(nil)
