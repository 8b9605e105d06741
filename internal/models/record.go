package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProductRecord is the frozen, serializable view of a Product. Field order
// here is the key order of the JSON output.
type ProductRecord struct {
	URL                 string     `json:"url"`
	Title               string     `json:"title"`
	Brand               string     `json:"brand"`
	Description         string     `json:"description"`
	SKUs                []SKU      `json:"skus"`
	Reviews             []Review   `json:"reviews"`
	Categories          []string   `json:"categories"`
	Properties          []Property `json:"properties"`
	ReviewsAverageScore *float64   `json:"reviews_average_score"`
}

// Record snapshots the product and attaches the derived average score.
// A product without reviews gets a nil average, written as JSON null.
func (p *Product) Record() ProductRecord {
	rec := ProductRecord{
		URL:         p.url,
		Title:       p.Title,
		Brand:       p.Brand,
		Description: p.Description,
		SKUs:        nonNil(p.SKUs()),
		Reviews:     nonNil(p.Reviews()),
		Categories:  nonNil(p.Categories()),
		Properties:  nonNil(p.Properties()),
	}

	// ErrNoReviews is the only failure and leaves the average nil.
	if avg, err := p.ReviewsAverageScore(); err == nil {
		rec.ReviewsAverageScore = &avg
	}

	return rec
}

// Serialize encodes the product as tab-indented JSON.
func (p *Product) Serialize() ([]byte, error) {
	return p.Record().MarshalIndent()
}

// MarshalIndent encodes the record with one tab per level and without
// escaping HTML characters in product text.
func (r ProductRecord) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode product: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return s
}
