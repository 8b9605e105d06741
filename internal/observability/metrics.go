package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "product_scraper", Name: "fetch_requests_total", Help: "Product page fetches."},
		[]string{"mode", "outcome"}, // outcome: ok|error
	)
	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "product_scraper", Name: "fetch_duration_seconds",
			Help:    "Product page fetch duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	ExtractedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "product_scraper", Name: "extracted_records_total", Help: "Records extracted per section."},
		[]string{"section"}, // section: category|sku|property|review
	)
	PersistEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "product_scraper", Name: "persist_total", Help: "Output writes per sink."},
		[]string{"sink", "outcome"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(FetchRequests, FetchLatency, ExtractedRecords, PersistEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveFetch(mode string, err error, dur time.Duration) {
	FetchRequests.WithLabelValues(mode, outcome(err)).Inc()
	FetchLatency.WithLabelValues(mode).Observe(dur.Seconds())
}

func ObserveExtracted(section string, n int) {
	ExtractedRecords.WithLabelValues(section).Add(float64(n))
}

func ObservePersist(sink string, err error) {
	PersistEvents.WithLabelValues(sink, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
