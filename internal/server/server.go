package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/api/routes"
	"github.com/Wikid82/pokedex/backend/internal/config"
	"github.com/Wikid82/pokedex/backend/internal/logger"
	"github.com/Wikid82/pokedex/backend/internal/metrics"
	"github.com/Wikid82/pokedex/backend/internal/services"
)

// Server wraps the HTTP engine and the background workers it owns.
type Server struct {
	Engine *gin.Engine
	cfg    config.Config

	audit    *services.AuditService
	janitor  *services.AssetJanitor
	notifier *services.NotificationService
}

// New builds the services, starts the background workers and registers routes.
// Call Close once the server has stopped.
func New(db *gorm.DB, cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	janitor, err := services.NewAssetJanitor(db, cfg.AssetsDir, cfg.AssetSweepSchedule)
	if err != nil {
		return nil, fmt.Errorf("asset janitor: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		audit:    services.NewAuditService(db, cfg.AuditBuffer),
		janitor:  janitor,
		notifier: services.NewNotificationService(cfg.NotifyURLs),
	}

	router := gin.New()
	svc := routes.Services{
		Pokemons: services.NewPokemonService(db, services.NewImageService(cfg.ImageFetchTimeout), cfg.AssetsDir),
		Audit:    s.audit,
		Sealer:   services.NewSealer(cfg.SealSecret),
		Registry: registry,
	}
	if s.notifier.Enabled() {
		svc.Notifier = s.notifier
	}
	if err := routes.Register(router, db, cfg, svc); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	s.Engine = router

	s.audit.Start()
	s.janitor.Start()
	return s, nil
}

// Run starts the HTTP server with proper shutdown semantics.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log().WithField("addr", srv.Addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close drains the audit queue, stops the asset sweep and waits for pending
// notifications. The database is left open for the caller to close.
func (s *Server) Close() {
	s.audit.Close()
	s.janitor.Stop()
	s.notifier.Wait()
}
