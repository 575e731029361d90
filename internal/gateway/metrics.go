package gateway

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/llm-router/internal/observability"
)

// httpMetrics records one RecordHTTPRequest/RecordHTTPActiveRequest pair
// per request against internal/observability.GlobalRecorder, using the
// matched route template (not the raw path) so cardinality stays bounded
// across the dialect-specific aliases spec §4.1 registers for the same
// logical route.
func httpMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		observability.GlobalRecorder.RecordHTTPActiveRequest(path, c.Request.Method, 1)
		defer observability.GlobalRecorder.RecordHTTPActiveRequest(path, c.Request.Method, -1)

		c.Next()

		observability.GlobalRecorder.RecordHTTPRequest(start, path, c.Request.Method, strconv.Itoa(c.Writer.Status()))
	}
}
