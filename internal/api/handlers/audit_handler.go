package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/pokedex/backend/internal/api/middleware"
	"github.com/Wikid82/pokedex/backend/internal/services"
)

// AuditHandler exposes the audit trail of a pokemon.
type AuditHandler struct {
	service *services.AuditService
}

func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/auditLogs/:name", h.ListByName)
}

// ListByName returns the newest audit entries for a pokemon name, ignoring case.
// limit defaults to 20 and is clamped to 1..100.
func (h *AuditHandler) ListByName(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = services.DefaultAuditLimit
	}
	logs, err := h.service.ListByName(c.Param("name"), services.ClampAuditLimit(limit))
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
