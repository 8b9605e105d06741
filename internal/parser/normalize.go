package parser

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FilledStar is the glyph counted by ParseStars. Any other character,
// including the empty star, contributes nothing.
const FilledStar = "★"

var currencyNoise = regexp.MustCompile(`[^\d,.\-]`)

// ParseStars returns the number of filled star glyphs in s.
func ParseStars(s string) int {
	return strings.Count(s, FilledStar)
}

// ParseCurrency converts a price written with a currency label, "." thousand
// separators and a "," decimal separator ("R$ 1.234,56") into a number.
// It returns nil when nothing numeric is left, meaning the price is absent,
// and for values too large to be a finite float64.
func ParseCurrency(s string) *float64 {
	cleaned := currencyNoise.ReplaceAllString(s, "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}

	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
