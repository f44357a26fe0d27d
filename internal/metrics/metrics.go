// Package metrics exposes Prometheus collectors for the review resolver.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal               *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	resolutionsTotal           *prometheus.CounterVec
	indexNextPage              *prometheus.GaugeVec
	indexSlugs                 *prometheus.GaugeVec
	indexPageFailuresTotal     *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editorial_fetches_total",
				Help: "Total number of outbound page fetches, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editorial_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by source.",
			},
			[]string{"source"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "editorial_fetch_duration_seconds",
				Help:    "Histogram of outbound fetch latencies, labeled by source.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		)

		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editorial_resolutions_total",
				Help: "Total number of review resolutions, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		indexNextPage = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "editorial_index_next_page",
				Help: "Highest listing page processed by the paginated index cache.",
			},
			[]string{"source"},
		)

		indexSlugs = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "editorial_index_slugs",
				Help: "Number of review slugs held by the paginated index cache.",
			},
			[]string{"source"},
		)

		indexPageFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editorial_index_page_failures_total",
				Help: "Listing pages skipped because their fetch failed.",
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one outbound fetch. status is the HTTP status code, or
// 0 when the request failed before a response arrived.
func ObserveFetch(source string, status int, bytesFetched int, duration time.Duration) {
	Init()
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	fetchesTotal.WithLabelValues(source, label).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(source).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveResolution counts one resolution attempt and its outcome.
func ObserveResolution(source, outcome string) {
	Init()
	resolutionsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveIndex publishes the paginated index cache state.
func ObserveIndex(source string, nextPage uint32, slugs int) {
	Init()
	indexNextPage.WithLabelValues(source).Set(float64(nextPage))
	indexSlugs.WithLabelValues(source).Set(float64(slugs))
}

// ObserveIndexPageFailure counts a listing page that could not be fetched.
func ObserveIndexPageFailure(source string) {
	Init()
	indexPageFailuresTotal.WithLabelValues(source).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
