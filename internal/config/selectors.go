package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultProductURL = "https://infosimples.com/vagas/desafio/commercia/produto.html"

// Selectors maps every logical field of a product page to the CSS selector
// that locates it. Selectors inside SKU and Review are relative to their container.
type Selectors struct {
	Title       string `yaml:"title"`
	Brand       string `yaml:"brand"`
	Description string `yaml:"description"`
	Categories  string `yaml:"categories"`

	SKU SKUSelectors `yaml:"sku"`

	Properties           PropertyTableSelectors `yaml:"properties"`
	AdditionalProperties PropertyTableSelectors `yaml:"additional_properties"`

	Review ReviewSelectors `yaml:"review"`
}

type SKUSelectors struct {
	Container    string `yaml:"container"`
	Name         string `yaml:"name"`
	CurrentPrice string `yaml:"current_price"`
	OldPrice     string `yaml:"old_price"`
	Unavailable  string `yaml:"unavailable"`
}

// PropertyTableSelectors locates a label/value table that follows a header.
// Table is matched against the header's following siblings; Row, Label and
// Cell are relative to the table and row.
type PropertyTableSelectors struct {
	Header string `yaml:"header"`
	Table  string `yaml:"table"`
	Row    string `yaml:"row"`
	Label  string `yaml:"label"`
	Cell   string `yaml:"cell"`
}

type ReviewSelectors struct {
	Container string `yaml:"container"`
	Name      string `yaml:"name"`
	Date      string `yaml:"date"`
	Stars     string `yaml:"stars"`
	Text      string `yaml:"text"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Title:       "h2#product_title",
		Brand:       "div.brand",
		Description: "div.proddet p",
		Categories:  "nav.current-category a",
		SKU: SKUSelectors{
			Container:    "div.skus-area div.card",
			Name:         ".prod-nome",
			CurrentPrice: ".prod-pnow",
			OldPrice:     ".prod-pold",
			Unavailable:  "i",
		},
		Properties: PropertyTableSelectors{
			Header: "h4:contains('Product properties')",
			Table:  "table",
			Row:    "tr",
			Label:  "b",
			Cell:   "td",
		},
		AdditionalProperties: PropertyTableSelectors{
			Header: "h4:contains('Additional properties')",
			Table:  "table",
			Row:    "tr",
			Label:  "b",
			Cell:   "td",
		},
		Review: ReviewSelectors{
			Container: "div#comments div.analisebox",
			Name:      "span.analiseusername",
			Date:      "span.analisedate",
			Stars:     "span.analisestars",
			Text:      "p",
		},
	}
}

// LoadSelectors returns the default selectors with any fields present in the
// YAML file at path applied on top. An empty path yields the defaults.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("failed to read selectors file: %w", err)
	}

	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("failed to parse selectors file %s: %w", path, err)
	}

	return sel, nil
}
