package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"Empty", "", 0},
		{"All filled", "★★★★★", 5},
		{"Mixed", "★★★★☆", 4},
		{"Three", "★★★☆☆", 3},
		{"None filled", "☆☆☆☆☆", 0},
		{"With whitespace", " ★ ★\n☆ ", 2},
		{"Other characters", "rating: ★★", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStars(tt.input))
		})
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Thousands and decimals", "R$ 1.234,56", 1234.56},
		{"Simple", "R$ 99,90", 99.9},
		{"No label", "10,00", 10},
		{"Padded", "  R$  5,5 \n", 5.5},
		{"Integer", "R$ 42", 42},
		{"Millions", "R$ 1.000.000,01", 1000000.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCurrency(tt.input)
			require.NotNil(t, result)
			assert.InDelta(t, tt.expected, *result, 1e-9)
		})
	}
}

func TestParseCurrencyAbsent(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"label only", "R$"},
		{"blank", "  "},
		{"words", "sem preço"},
		{"huge", "R$ 1" + strings.Repeat("0", 400) + ",00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseCurrency(tt.input))
		})
	}
}
