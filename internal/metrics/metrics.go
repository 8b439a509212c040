// Package metrics exposes the Prometheus collectors for the hosting node.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the node-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "host_runtime",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "host_runtime",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	provenanceResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "host_runtime",
			Subsystem: "provenance",
			Name:      "resolutions_total",
			Help:      "Source provenance resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	deployedVersions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "host_runtime",
			Subsystem: "registry",
			Name:      "deployed_versions",
			Help:      "Number of application versions currently registered.",
		},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, provenanceResolutions, deployedVersions)
}

// ObserveProvenanceResolution records the outcome of one provenance
// resolution ("git" or "none").
func ObserveProvenanceResolution(outcome string) {
	provenanceResolutions.WithLabelValues(outcome).Inc()
}

// SetDeployedVersions updates the registered-version gauge.
func SetDeployedVersions(n int) {
	deployedVersions.Set(float64(n))
}

// Handler returns an HTTP handler serving the node registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps an HTTP handler with request count and duration
// collectors keyed by the route template.
func InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
