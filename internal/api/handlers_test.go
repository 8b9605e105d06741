package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/maltedev/product-page-scraper/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScraper struct {
	product *models.Product
	err     error
	gotURL  string
}

func (s *stubScraper) Scrape(_ context.Context, url string) (*models.Product, error) {
	s.gotURL = url
	return s.product, s.err
}

type memorySink struct {
	url  string
	data []byte
	err  error
}

func (m *memorySink) Store(_ context.Context, url string, data []byte) error {
	m.url, m.data = url, data
	return m.err
}
func (m *memorySink) Name() string { return "memory" }
func (m *memorySink) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func widget() *models.Product {
	p := models.NewProduct("https://shop.example/widget")
	p.Title = "Widget"
	p.AddCategory("Casa").
		AddReview(models.Review{Name: "Ana", Score: 4}).
		AddReview(models.Review{Name: "Bia", Score: 3})
	return p
}

func doExtract(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExtractProduct(t *testing.T) {
	s := &stubScraper{product: widget()}
	sink := &memorySink{}
	router := NewRouter(NewHandlers(s, sink, testLogger()), RouterOptions{})

	rec := doExtract(t, router, `{"url":"https://shop.example/widget"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, "https://shop.example/widget", s.gotURL)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Widget", got["title"])
	assert.Equal(t, 3.5, got["reviews_average_score"])
	assert.Equal(t, []any{"Casa"}, got["categories"])
	assert.Equal(t, []any{}, got["skus"])

	assert.Equal(t, "https://shop.example/widget", sink.url)
	assert.Contains(t, string(sink.data), `"title": "Widget"`)
}

func TestExtractProductErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "invalid body", body: `{"url":`, wantStatus: http.StatusBadRequest},
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest},
		{
			name:       "fetch failure",
			body:       `{"url":"https://shop.example/widget"}`,
			err:        fmt.Errorf("%w: %w", scraper.ErrFetch, context.DeadlineExceeded),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "parse failure",
			body:       `{"url":"https://shop.example/widget"}`,
			err:        errors.New("failed to parse product"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{}
			router := NewRouter(NewHandlers(&stubScraper{err: tt.err}, sink, testLogger()), RouterOptions{})

			rec := doExtract(t, router, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.NotEmpty(t, got["error"])
			assert.Nil(t, sink.data)
		})
	}
}

func TestExtractProductRejectsOversizedBody(t *testing.T) {
	s := &stubScraper{product: widget()}
	router := NewRouter(NewHandlers(s, nil, testLogger()), RouterOptions{})

	body := `{"url":"https://shop.example/widget","pad":"` + strings.Repeat("a", maxRequestBytes) + `"}`
	rec := doExtract(t, router, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, s.gotURL)
}

func TestExtractProductSinkFailureStillResponds(t *testing.T) {
	sink := &memorySink{err: errors.New("redis down")}
	router := NewRouter(NewHandlers(&stubScraper{product: widget()}, sink, testLogger()), RouterOptions{})

	rec := doExtract(t, router, `{"url":"https://shop.example/widget"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Widget"`)
}

func TestExtractProductWithoutSink(t *testing.T) {
	router := NewRouter(NewHandlers(&stubScraper{product: widget()}, nil, testLogger()), RouterOptions{})

	rec := doExtract(t, router, `{"url":"https://shop.example/widget"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsKept(t *testing.T) {
	router := NewRouter(NewHandlers(&stubScraper{}, nil, testLogger()), RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "product_scraper_fetch_requests_total 1\n")
	})
	router := NewRouter(NewHandlers(&stubScraper{}, nil, testLogger()), RouterOptions{Metrics: metrics})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_scraper_fetch_requests_total")

	noMetrics := NewRouter(NewHandlers(&stubScraper{}, nil, testLogger()), RouterOptions{})
	rec = httptest.NewRecorder()
	noMetrics.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(NewHandlers(&stubScraper{}, nil, testLogger()), RouterOptions{
		AllowedOrigins: []string{"http://localhost:*"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products/extract", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
