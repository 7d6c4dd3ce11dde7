package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Wikid82/pokedex/backend/internal/metrics"
)

// Metrics counts handled requests by method, matched route and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status())
	}
}
