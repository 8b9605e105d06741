package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoReviews is returned when an average is requested over an empty review list.
	ErrNoReviews = errors.New("no reviews to average")
	// ErrInvalidScore is returned when review score text is not a base-10 integer.
	ErrInvalidScore = errors.New("invalid review score")
)

// SKU is one purchasable variant. A nil price means the page showed none.
type SKU struct {
	Name         string   `json:"name"`
	CurrentPrice *float64 `json:"current_price"`
	OldPrice     *float64 `json:"old_price"`
	Available    bool     `json:"available"`
}

// Property is one label/value row of an attribute table. Rows from the base
// and the additional table share one sequence and carry no origin marker.
type Property struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Review is one customer review; Score is the number of filled stars.
type Review struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Score int    `json:"score"`
	Text  string `json:"text"`
}

// Product is the aggregate filled by the extractor. It is mutated only
// through its Add* builders and frozen into a ProductRecord for output.
// Title, Brand and Description are set once by the extractor and not
// written afterwards.
type Product struct {
	url         string
	Title       string
	Brand       string
	Description string
	categories  []string
	skus        []SKU
	properties  []Property
	reviews     []Review
}

// NewProduct returns an empty product for url. The url cannot change later.
func NewProduct(url string) *Product {
	return &Product{
		url:        url,
		categories: make([]string, 0),
		skus:       make([]SKU, 0),
		properties: make([]Property, 0),
		reviews:    make([]Review, 0),
	}
}

func (p *Product) URL() string {
	return p.url
}

func (p *Product) AddCategory(name string) *Product {
	p.categories = append(p.categories, name)
	return p
}

func (p *Product) AddSKU(sku SKU) *Product {
	p.skus = append(p.skus, sku)
	return p
}

func (p *Product) AddProperty(prop Property) *Product {
	p.properties = append(p.properties, prop)
	return p
}

func (p *Product) AddReview(review Review) *Product {
	p.reviews = append(p.reviews, review)
	return p
}

// AddReviewText appends a review whose score is still raw text. A score that
// does not parse as a base-10 integer is rejected and the review is not added.
func (p *Product) AddReviewText(name, date, text, score string) error {
	n, err := ParseScore(score)
	if err != nil {
		return fmt.Errorf("review by %q: %w", name, err)
	}
	p.AddReview(Review{Name: name, Date: date, Text: text, Score: n})
	return nil
}

// ParseScore parses review score text as a base-10 integer.
func ParseScore(s string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, s)
	}
	return int(n), nil
}

func (p *Product) Categories() []string {
	return append([]string(nil), p.categories...)
}

func (p *Product) SKUs() []SKU {
	return append([]SKU(nil), p.skus...)
}

func (p *Product) Properties() []Property {
	return append([]Property(nil), p.properties...)
}

func (p *Product) Reviews() []Review {
	return append([]Review(nil), p.reviews...)
}

// ReviewsAverageScore returns the mean review score. It is computed on every
// call, so it always reflects the reviews added so far.
func (p *Product) ReviewsAverageScore() (float64, error) {
	if len(p.reviews) == 0 {
		return 0, ErrNoReviews
	}

	total := 0
	for _, r := range p.reviews {
		total += r.Score
	}
	return float64(total) / float64(len(p.reviews)), nil
}

func (p *Product) Validate() []string {
	var errors []string

	if p.url == "" {
		errors = append(errors, "URL is required")
	}

	if p.Title == "" {
		errors = append(errors, "Title is required")
	}

	for i, sku := range p.skus {
		if sku.Name == "" {
			errors = append(errors, fmt.Sprintf("SKU %d has no name", i))
		}
	}

	return errors
}
