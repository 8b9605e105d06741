package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/maltedev/product-page-scraper/internal/parser"
	"github.com/maltedev/product-page-scraper/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetPage = `<html><body>
	<h2 id="product_title">Widget</h2>
	<nav class="current-category"><a>Casa</a><a>Ferramentas</a></nav>
	<div class="skus-area"><div class="card">
		<div class="prod-nome">Widget</div>
		<div class="prod-pnow">R$ 99,90</div>
	</div></div>
	<div id="comments">
		<div class="analisebox"><span class="analisestars">★★★★☆</span></div>
		<div class="analisebox"><span class="analisestars">★★★☆☆</span></div>
	</div>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFetcher struct {
	html  string
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.html, f.err
}

func (f *stubFetcher) Name() string { return "stub" }

type failingParser struct{ calls int }

func (p *failingParser) ParseProductPage(string, string) (*models.Product, error) {
	p.calls++
	return nil, errors.New("should not be called")
}

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(widgetPage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "test-agent")
	html, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, widgetPage, html)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "http", f.Name())
}

func TestHTTPFetcherDecodesLatin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>Pre\xe7o</p>"))
	}))
	defer srv.Close()

	html, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<p>Preço</p>", html)
}

func TestHTTPFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "")

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(context.Background(), "ftp://shop.example/p")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestHTTPFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPFetcher(50*time.Millisecond, "").Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServiceScrape(t *testing.T) {
	f := &stubFetcher{html: widgetPage}
	s := NewService(f, parser.NewProductParser(config.DefaultSelectors()), ratelimit.NewHostRateLimiter(0, 1), testLogger())

	product, err := s.Scrape(context.Background(), "https://shop.example/widget")
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "https://shop.example/widget", product.URL())
	assert.Equal(t, "Widget", product.Title)
	assert.Equal(t, []string{"Casa", "Ferramentas"}, product.Categories())

	avg, err := product.ReviewsAverageScore()
	require.NoError(t, err)
	assert.Equal(t, 3.5, avg)
}

func TestServiceScrapeFetchFailureStopsRun(t *testing.T) {
	f := &stubFetcher{err: context.DeadlineExceeded}
	p := &failingParser{}
	s := NewService(f, p, nil, testLogger())

	product, err := s.Scrape(context.Background(), "https://shop.example/widget")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, p.calls)
}

func TestServiceScrapeRateLimited(t *testing.T) {
	f := &stubFetcher{html: widgetPage}
	s := NewService(f, parser.NewProductParser(config.DefaultSelectors()), ratelimit.NewHostRateLimiter(time.Hour, 1), testLogger())

	_, err := s.Scrape(context.Background(), "https://shop.example/widget")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Scrape(ctx, "https://shop.example/widget")

	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, 1, f.calls)
}

func TestServiceClose(t *testing.T) {
	s := NewService(&stubFetcher{}, &failingParser{}, nil, testLogger())
	assert.NoError(t, s.Close())
}
