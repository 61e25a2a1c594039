// Package datatypes defines shared enum types for tickets and enrichment results.
package datatypes

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidCategory is returned when a string does not name a known category.
var ErrInvalidCategory = errors.New("invalid category")

// Category is the closed set of labels an enrichment can assign to a ticket.
// Use String() to get the string representation for API/database.
type Category uint8

// Category constants; string form is given in categoryMap.
// CategoryUnknown is the degraded label used when classification fails.
const (
	CategoryUnknown Category = iota
	CategoryGeneral
	CategoryBilling
	CategoryTechnical
)

// categoryMap maps string representations to Category enums.
// This is the single source of truth for valid category strings.
var categoryMap = map[string]Category{
	"unknown":   CategoryUnknown,
	"general":   CategoryGeneral,
	"billing":   CategoryBilling,
	"technical": CategoryTechnical,
}

// reverseCategoryMap maps Category enums to string representations.
var reverseCategoryMap map[Category]string

func init() {
	reverseCategoryMap = make(map[Category]string, len(categoryMap))
	for str, c := range categoryMap {
		reverseCategoryMap[c] = str
	}
}

// String returns the string representation of a Category.
// Returns empty string for invalid categories.
func (c Category) String() string {
	return reverseCategoryMap[c]
}

// IsValid reports whether c is one of the defined categories.
func (c Category) IsValid() bool {
	_, ok := reverseCategoryMap[c]

	return ok
}

// ParseCategory converts a string to a Category enum (case-insensitive, surrounding space ignored).
// Returns the Category and true if valid, or CategoryUnknown and false if invalid.
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryMap[strings.ToLower(strings.TrimSpace(s))]

	return c, ok
}

// ClassifiableCategories returns the labels a classifier may choose from, in a stable order.
// CategoryUnknown is excluded; it is only ever assigned as a fallback.
func ClassifiableCategories() []Category {
	return []Category{CategoryGeneral, CategoryBilling, CategoryTechnical}
}

// ClassifiableLabels returns the string form of ClassifiableCategories.
func ClassifiableLabels() []string {
	cats := ClassifiableCategories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.String()
	}

	return out
}

// MarshalText implements encoding.TextMarshaler so categories serialize as strings in JSON.
func (c Category) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, c)
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, text)
	}

	*c = parsed

	return nil
}

// RoundConfidence clamps a score to [0,1] and rounds it to two decimals.
// NaN maps to 0.
func RoundConfidence(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}

	if v >= 1 {
		return 1
	}

	return math.Round(v*100) / 100
}
