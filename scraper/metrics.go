package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for product extraction.
type Metrics struct {
	Registry          *prometheus.Registry
	ExtractionsTotal  *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	ErrorsTotal       *prometheus.CounterVec
	PricePatternTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	extractions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sjofertas_extractions_total",
			Help: "Product links processed, by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sjofertas_fetch_duration_seconds",
			Help:    "Latency of product page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sjofertas_extract_errors_total",
			Help: "Fetch and extraction failures by type.",
		},
		[]string{"error_type"},
	)
	pricePatterns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sjofertas_price_pattern_total",
			Help: "Price rule that produced the displayed price.",
		},
		[]string{"platform", "pattern"},
	)

	registry.MustRegister(extractions, fetchDuration, errorsTotal, pricePatterns)

	return &Metrics{
		Registry:          registry,
		ExtractionsTotal:  extractions,
		FetchDuration:     fetchDuration,
		ErrorsTotal:       errorsTotal,
		PricePatternTotal: pricePatterns,
	}
}

// IncExtraction counts a finished extraction.
func (m *Metrics) IncExtraction(platform, outcome string) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(platform, outcome).Inc()
}

// ObserveDuration records a page fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncPricePattern counts which price rule matched.
func (m *Metrics) IncPricePattern(platform, pattern string) {
	if m == nil {
		return
	}
	m.PricePatternTotal.WithLabelValues(platform, pattern).Inc()
}
