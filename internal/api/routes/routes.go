package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/api/handlers"
	"github.com/Wikid82/pokedex/backend/internal/api/middleware"
	"github.com/Wikid82/pokedex/backend/internal/config"
	"github.com/Wikid82/pokedex/backend/internal/models"
	"github.com/Wikid82/pokedex/backend/internal/services"
)

// Services are the long-lived dependencies the routes are built on.
type Services struct {
	Pokemons *services.PokemonService
	Audit    *services.AuditService
	Sealer   *services.Sealer
	// Notifier is optional.
	Notifier handlers.Notifier
	// Registry is exposed on /metrics when set.
	Registry *prometheus.Registry
}

// Register performs automatic migrations, installs the middleware chain and
// wires up every route.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, svc Services) error {
	if err := db.AutoMigrate(
		&models.Pokemon{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		IsDevelopment: !cfg.IsProduction(),
	}))
	router.Use(middleware.BodyLimit(middleware.MaxBodyBytes))
	// Audit wraps Recovery so a recovered panic is recorded with its 500.
	router.Use(middleware.Audit(svc.Audit))
	router.Use(middleware.Recovery(cfg.Debug))

	router.GET("/", handlers.RootHandler)
	router.GET("/goodbye", handlers.GoodbyeHandler)
	router.GET("/health", handlers.HealthHandler)
	if svc.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))
	}
	router.StaticFS("/assets", gin.Dir(cfg.AssetsDir, false))

	handlers.NewPokemonHandler(svc.Pokemons, svc.Sealer, svc.Notifier).RegisterRoutes(router)
	handlers.NewAuditHandler(svc.Audit).RegisterRoutes(router)

	return nil
}
