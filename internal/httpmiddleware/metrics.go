package httpmiddleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/metrics"
)

// RequestDuration records per-route request latency. Routes are
// labeled by their registered pattern; requests that match no route
// share one "unmatched" label to keep cardinality bounded.
func RequestDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(
			path, c.Request.Method, strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
