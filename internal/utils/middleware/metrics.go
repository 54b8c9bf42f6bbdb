package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mockmate/server/internal/utils/metrics"
)

// Metrics returns a middleware that records HTTP request metrics. The route
// template is used as the path label so IDs do not explode cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()

		c.Next()

		m.HTTPRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
