package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/models"
)

// ExtractHTML parses markup from r and extracts the product it describes.
func ExtractHTML(r io.Reader, url string, sel config.Selectors) (*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return Extract(doc, url, sel), nil
}

// Extract walks doc once per section and fills a fresh Product. Selectors
// that match nothing give empty strings or empty sequences; collection items
// with missing sub-fields are still recorded.
func Extract(doc *goquery.Document, url string, sel config.Selectors) *models.Product {
	product := models.NewProduct(url)

	product.Title = textOf(doc.Selection, sel.Title)
	product.Brand = textOf(doc.Selection, sel.Brand)
	product.Description = textOf(doc.Selection, sel.Description)

	extractCategories(doc, sel.Categories, product)
	extractSKUs(doc, sel.SKU, product)

	// base and additional rows end up in one flat sequence
	extractProperties(doc, sel.Properties, product)
	extractProperties(doc, sel.AdditionalProperties, product)

	extractReviews(doc, sel.Review, product)

	return product
}

func extractCategories(doc *goquery.Document, selector string, product *models.Product) {
	findAll(doc.Selection, selector).Each(func(_ int, s *goquery.Selection) {
		product.AddCategory(strings.TrimSpace(s.Text()))
	})
}

func extractSKUs(doc *goquery.Document, sel config.SKUSelectors, product *models.Product) {
	findAll(doc.Selection, sel.Container).Each(func(_ int, s *goquery.Selection) {
		product.AddSKU(models.SKU{
			Name:         textOf(s, sel.Name),
			CurrentPrice: ParseCurrency(textOf(s, sel.CurrentPrice)),
			OldPrice:     ParseCurrency(textOf(s, sel.OldPrice)),
			Available:    textOf(s, sel.Unavailable) == "",
		})
	})
}

func extractProperties(doc *goquery.Document, sel config.PropertyTableSelectors, product *models.Product) {
	header := findAll(doc.Selection, sel.Header).First()
	if header.Length() == 0 || sel.Table == "" {
		return
	}

	table := header.NextAllFiltered(sel.Table).First()
	findAll(table, sel.Row).Each(func(_ int, row *goquery.Selection) {
		label := findAll(row, sel.Label).First()
		var value string
		if sel.Cell != "" {
			value = strings.TrimSpace(label.Closest(sel.Cell).Next().Text())
		}
		product.AddProperty(models.Property{
			Label: strings.TrimSpace(label.Text()),
			Value: value,
		})
	})
}

func extractReviews(doc *goquery.Document, sel config.ReviewSelectors, product *models.Product) {
	findAll(doc.Selection, sel.Container).Each(func(_ int, s *goquery.Selection) {
		product.AddReview(models.Review{
			Name:  textOf(s, sel.Name),
			Date:  textOf(s, sel.Date),
			Score: ParseStars(textOf(s, sel.Stars)),
			Text:  textOf(s, sel.Text),
		})
	})
}

func findAll(s *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return s.Slice(0, 0)
	}
	return s.Find(selector)
}

func textOf(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(findAll(s, selector).First().Text())
}
