package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/maltedev/product-page-scraper/internal/scraper"
	"github.com/maltedev/product-page-scraper/internal/storage"
)

// ProductScraper is satisfied by *scraper.Service.
type ProductScraper interface {
	Scrape(ctx context.Context, url string) (*models.Product, error)
}

type Handlers struct {
	scraper ProductScraper
	sink    storage.Sink
	logger  *slog.Logger
}

// NewHandlers wires the extract endpoint. sink may be nil, in which case
// records are only returned to the caller.
func NewHandlers(s ProductScraper, sink storage.Sink, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: s,
		sink:    sink,
		logger:  logger.With("component", "api"),
	}
}

const maxRequestBytes = 1 << 20

type ExtractRequest struct {
	URL string `json:"url"`
}

// ExtractProduct scrapes the requested page and responds with its record.
func (h *Handlers) ExtractProduct(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	reqID := middleware.GetReqID(r.Context())

	product, err := h.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("failed to extract product", "error", err, "url", req.URL, "request_id", reqID)
		if errors.Is(err, scraper.ErrFetch) {
			h.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to extract product")
		return
	}

	record := product.Record()

	if h.sink != nil {
		data, err := record.MarshalIndent()
		if err == nil {
			err = storage.Persist(r.Context(), h.sink, product.URL(), data)
		}
		if err != nil {
			h.logger.Error("failed to persist product", "error", err, "url", req.URL, "request_id", reqID)
		}
	}

	h.respondJSON(w, http.StatusOK, record)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
