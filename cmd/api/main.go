package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wikid82/pokedex/backend/internal/config"
	"github.com/Wikid82/pokedex/backend/internal/database"
	"github.com/Wikid82/pokedex/backend/internal/logger"
	"github.com/Wikid82/pokedex/backend/internal/server"
	"github.com/Wikid82/pokedex/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Setup logging with rotation
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.Fatalf("create log dir: %v", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "pokedex.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	defer rotator.Close()

	// Log to both stdout and file
	mw := io.MultiWriter(os.Stdout, rotator)
	logger.Init(cfg.Debug, mw)
	stdWriter := logger.Writer()
	defer stdWriter.Close()
	log.SetOutput(stdWriter)
	gin.DefaultWriter = stdWriter
	gin.DefaultErrorWriter = stdWriter

	logger.Log().WithField("version", version.Full()).Infof("starting %s backend", version.Name)
	if cfg.UsingFallbackSecret {
		logger.Log().Warn("POKEDEX_SEAL_SECRET is not set, integrity hashes use the public default secret")
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	srv.Close()
	if err := database.Close(db); err != nil {
		logger.Log().WithError(err).Warn("close database")
	}
	if runErr != nil {
		logger.Log().WithError(runErr).Fatal("server error")
	}
	logger.Log().Info("server stopped")
}
