package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generation
	GenerationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvquestions_generation_requests_total",
			Help: "Generate actions by outcome",
		},
		[]string{"result"}, // result: success|failure|invalid|rejected
	)
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cvquestions_generation_duration_seconds",
			Help:    "Time spent waiting for the generation service",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s..256s
		},
	)
	ArtifactsReturned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cvquestions_artifacts_returned_total",
			Help: "Number of result entries returned by the generation service",
		},
	)

	// API calls
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvquestions_api_requests_total",
			Help: "Outgoing API requests by endpoint and status class",
		},
		[]string{"endpoint", "status"},
	)

	// Local storage
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvquestions_store_ops_total",
			Help: "Local key-value store operations",
		},
		[]string{"op"}, // op: get|set|remove
	)
)

func init() {
	prometheus.MustRegister(
		GenerationRequests,
		GenerationDurationSeconds,
		ArtifactsReturned,
		APIRequests,
		StoreOps,
	)
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncGeneration counts one Generate call by outcome: success, failure, invalid or rejected.
func IncGeneration(result string) {
	GenerationRequests.WithLabelValues(result).Inc()
}

// ObserveGenerationDuration records how long the service took to answer.
func ObserveGenerationDuration(d time.Duration) {
	GenerationDurationSeconds.Observe(d.Seconds())
}

// AddArtifacts counts result entries returned by a successful generation.
func AddArtifacts(n int) {
	ArtifactsReturned.Add(float64(n))
}

// IncAPIRequest counts one outgoing request by endpoint and status class (2xx, 4xx, error).
func IncAPIRequest(endpoint, status string) {
	APIRequests.WithLabelValues(endpoint, status).Inc()
}

// IncStoreOp counts one key-value store operation.
func IncStoreOp(op string) {
	StoreOps.WithLabelValues(op).Inc()
}
