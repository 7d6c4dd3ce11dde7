package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS for plain-HTTP local runs.
	IsDevelopment bool
}

// API responses are JSON or plain text and never need to load anything.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// Stored images may be SVG. The sandbox keeps them from running script when
// opened directly.
const assetCSP = "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'; sandbox"

// SecurityHeaders sets the headers shared by every response.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.IsDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", buildPermissionsPolicy())
		c.Header("Cross-Origin-Opener-Policy", "same-origin")

		if strings.HasPrefix(c.Request.URL.Path, "/assets/") {
			c.Header("Content-Security-Policy", assetCSP)
			c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		} else {
			c.Header("Content-Security-Policy", apiCSP)
			c.Header("Cross-Origin-Resource-Policy", "same-origin")
		}
		c.Next()
	}
}

func buildPermissionsPolicy() string {
	policies := []string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
	return strings.Join(policies, ", ")
}
