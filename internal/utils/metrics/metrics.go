package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Quota metrics
	QuotaDecisionsTotal *prometheus.CounterVec
	QuotaUnitsTotal     *prometheus.CounterVec
	QuotaRemaining      *prometheus.GaugeVec

	// Interview metrics
	InterviewSessionsTotal  *prometheus.CounterVec
	InterviewGenerationSecs prometheus.Histogram

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mockmate"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		QuotaDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quota",
				Name:      "decisions_total",
				Help:      "Total number of eligibility decisions",
			},
			[]string{"outcome"}, // allowed, denied
		),
		QuotaUnitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quota",
				Name:      "units_total",
				Help:      "Total quota units moved, by direction",
			},
			[]string{"direction"}, // consumed, refunded
		),
		QuotaRemaining: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "quota",
				Name:      "remaining_units",
				Help:      "Last observed remaining units, by plan tier",
			},
			[]string{"tier"},
		),

		InterviewSessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "interview",
				Name:      "sessions_total",
				Help:      "Total number of interview sessions, by outcome",
			},
			[]string{"outcome"}, // started, completed, cancelled, rejected
		),
		InterviewGenerationSecs: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "interview",
				Name:      "generation_duration_seconds",
				Help:      "Interview script generation duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordQuotaDecision records an eligibility decision.
func (m *Metrics) RecordQuotaDecision(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.QuotaDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordQuotaConsumed records consumed units.
func (m *Metrics) RecordQuotaConsumed(units int64) {
	m.QuotaUnitsTotal.WithLabelValues("consumed").Add(float64(units))
}

// RecordQuotaRefunded records refunded units.
func (m *Metrics) RecordQuotaRefunded(units int64) {
	m.QuotaUnitsTotal.WithLabelValues("refunded").Add(float64(units))
}

// RecordInterviewSession records a session outcome.
func (m *Metrics) RecordInterviewSession(outcome string) {
	m.InterviewSessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
