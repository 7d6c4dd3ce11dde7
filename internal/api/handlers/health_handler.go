package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/pokedex/backend/internal/version"
)

// RootHandler is the plain-text liveness endpoint.
func RootHandler(c *gin.Context) {
	c.String(http.StatusOK, "Hello World from the Pokedex API!")
}

func GoodbyeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Goodbye from the Pokedex API!")
}

// HealthHandler responds with basic service metadata for uptime checks.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
	})
}
