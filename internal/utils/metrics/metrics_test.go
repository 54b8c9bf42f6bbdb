package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New("mockmate_test")

	t.Run("http request", func(t *testing.T) {
		m.RecordHTTPRequest("GET", "/api/v1/quota/status", 200, 25*time.Millisecond)
		m.RecordHTTPRequest("POST", "/api/v1/interviews", 402, 5*time.Millisecond)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/quota/status", "2xx")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/interviews", "4xx")))
	})

	t.Run("quota decisions", func(t *testing.T) {
		m.RecordQuotaDecision(true)
		m.RecordQuotaDecision(true)
		m.RecordQuotaDecision(false)

		assert.Equal(t, float64(2), testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues("allowed")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues("denied")))
	})

	t.Run("quota units", func(t *testing.T) {
		m.RecordQuotaConsumed(1500)
		m.RecordQuotaRefunded(1500)

		assert.Equal(t, float64(1500), testutil.ToFloat64(m.QuotaUnitsTotal.WithLabelValues("consumed")))
		assert.Equal(t, float64(1500), testutil.ToFloat64(m.QuotaUnitsTotal.WithLabelValues("refunded")))
	})

	t.Run("interview sessions", func(t *testing.T) {
		m.RecordInterviewSession("started")
		m.RecordInterviewSession("cancelled")

		assert.Equal(t, float64(1), testutil.ToFloat64(m.InterviewSessionsTotal.WithLabelValues("started")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.InterviewSessionsTotal.WithLabelValues("cancelled")))
	})

	t.Run("cache", func(t *testing.T) {
		m.RecordCacheHit("quota_status")
		m.RecordCacheMiss("quota_status")

		assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("quota_status")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("quota_status")))
	})
}

func TestStatusCodeToString(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToString(204))
	assert.Equal(t, "3xx", statusCodeToString(302))
	assert.Equal(t, "4xx", statusCodeToString(402))
	assert.Equal(t, "5xx", statusCodeToString(503))
	assert.Equal(t, "unknown", statusCodeToString(99))
}
