package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transaction metrics
	TxBegun = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kuiperdb_tx_begun_total",
			Help: "Total number of transactions begun",
		},
	)

	TxOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kuiperdb_tx_outcomes_total",
			Help: "Total number of transactions by outcome",
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)

	// Scan metrics
	ScanPageLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kuiperdb_scan_page_latency_seconds",
			Help:    "Time taken to fetch a single page of a scan",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Index metrics
	IndexesOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kuiperdb_indexes_open",
			Help: "Number of indexes currently registered",
		},
	)

	// Query execution metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kuiperdb_queries_total",
			Help: "Total number of executed queries by outcome",
		},
		[]string{"outcome"}, // "ok" or "error"
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kuiperdb_query_duration_seconds",
			Help:    "End-to-end query execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CollectionScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kuiperdb_collection_scan_duration_seconds",
			Help:    "End-to-end duration of a full (all-pages) collection scan, by collection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	// Front-end metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kuiperdb_requests_total",
			Help: "Total number of front-end requests by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(TxBegun)
	prometheus.MustRegister(TxOutcomesTotal)
	prometheus.MustRegister(ScanPageLatency)
	prometheus.MustRegister(IndexesOpen)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(CollectionScanDuration)
	prometheus.MustRegister(RequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
