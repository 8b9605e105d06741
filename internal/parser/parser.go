package parser

import (
	"strings"

	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/models"
)

// Parser turns fetched markup into a product.
type Parser interface {
	ParseProductPage(html string, url string) (*models.Product, error)
}

// ProductParser extracts products with a fixed selector set.
type ProductParser struct {
	selectors config.Selectors
}

func NewProductParser(selectors config.Selectors) *ProductParser {
	return &ProductParser{selectors: selectors}
}

func (p *ProductParser) ParseProductPage(html string, url string) (*models.Product, error) {
	return ExtractHTML(strings.NewReader(html), url, p.selectors)
}
