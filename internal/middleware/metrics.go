package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/personnel-api/internal/service"
)

// Metrics records latency and status per route template. Requests that
// matched no route (static bundle, unknown paths) share the "static" label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "static"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
