package scraper

import (
	"context"
	"errors"
)

var (
	// ErrFetch wraps every failure to retrieve the product page. It is fatal
	// for a run: nothing is extracted after it.
	ErrFetch             = errors.New("failed to fetch product page")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrUnexpectedStatus  = errors.New("unexpected HTTP status")
)

// Fetcher retrieves the raw markup behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Name() string
}
