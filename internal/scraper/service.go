package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/maltedev/product-page-scraper/internal/observability"
	"github.com/maltedev/product-page-scraper/internal/parser"
	"github.com/maltedev/product-page-scraper/internal/ratelimit"
)

// Service runs one fetch and one extraction per call. The limiter is
// optional.
type Service struct {
	fetcher Fetcher
	parser  parser.Parser
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

func NewService(f Fetcher, p parser.Parser, limiter ratelimit.RateLimiter, logger *slog.Logger) *Service {
	return &Service{
		fetcher: f,
		parser:  p,
		limiter: limiter,
		logger:  logger.With("component", "scraper"),
	}
}

// Scrape fetches the page at rawURL and extracts its product. Any fetch
// failure is returned wrapped in ErrFetch before extraction starts.
func (s *Service) Scrape(ctx context.Context, rawURL string) (*models.Product, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrFetch, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, u.Host); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrFetch, err)
		}
	}

	s.logger.Info("fetching product page", "url", rawURL, "mode", s.fetcher.Name())

	start := time.Now()
	html, err := s.fetcher.Fetch(ctx, rawURL)
	observability.ObserveFetch(s.fetcher.Name(), err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	product, err := s.parser.ParseProductPage(html, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}

	categories, skus := len(product.Categories()), len(product.SKUs())
	properties, reviews := len(product.Properties()), len(product.Reviews())
	observability.ObserveExtracted("category", categories)
	observability.ObserveExtracted("sku", skus)
	observability.ObserveExtracted("property", properties)
	observability.ObserveExtracted("review", reviews)

	s.logger.Info("extracted product",
		"url", rawURL,
		"title", product.Title,
		"categories", categories,
		"skus", skus,
		"properties", properties,
		"reviews", reviews,
		"duration", time.Since(start),
	)

	for _, problem := range product.Validate() {
		s.logger.Warn("incomplete product", "url", rawURL, "problem", problem)
	}

	return product, nil
}

// Close releases the fetcher when it holds resources, such as a browser.
func (s *Service) Close() error {
	if c, ok := s.fetcher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
