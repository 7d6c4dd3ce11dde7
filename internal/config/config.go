package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultSealSecret is used outside production when POKEDEX_SEAL_SECRET is unset.
// It is public and offers no tamper protection.
const DefaultSealSecret = "pokedex-insecure-default-secret"

// ErrSealSecretRequired is returned by Load in production without a seal secret.
var ErrSealSecretRequired = errors.New("POKEDEX_SEAL_SECRET must be set in production")

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string `env:"POKEDEX_ENV" envDefault:"development"`
	HTTPPort     string `env:"POKEDEX_HTTP_PORT" envDefault:"8080"`
	DatabasePath string `env:"POKEDEX_DB_PATH" envDefault:"data/pokedex.db"`
	AssetsDir    string `env:"POKEDEX_ASSETS_DIR" envDefault:"data/assets"`
	LogDir       string `env:"POKEDEX_LOG_DIR" envDefault:"data/logs"`
	Debug        bool   `env:"POKEDEX_DEBUG" envDefault:"false"`

	SealSecret        string        `env:"POKEDEX_SEAL_SECRET"`
	ImageFetchTimeout time.Duration `env:"POKEDEX_IMAGE_FETCH_TIMEOUT" envDefault:"15s"`
	AuditBuffer       int           `env:"POKEDEX_AUDIT_BUFFER" envDefault:"256"`

	NotifyURLs         []string `env:"POKEDEX_NOTIFY_URLS" envSeparator:","`
	AssetSweepSchedule string   `env:"POKEDEX_ASSET_SWEEP_SCHEDULE" envDefault:"@every 1h"`

	// UsingFallbackSecret is set by Load when DefaultSealSecret was substituted.
	UsingFallbackSecret bool
}

// IsProduction reports whether the service runs with production safeguards.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads an optional .env file and env vars, falling back to defaults so the
// server can boot with zero configuration outside production.
func Load() (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.SealSecret == "" {
		if cfg.IsProduction() {
			return Config{}, ErrSealSecretRequired
		}
		cfg.SealSecret = DefaultSealSecret
		cfg.UsingFallbackSecret = true
	}
	if cfg.AuditBuffer <= 0 {
		cfg.AuditBuffer = 256
	}
	if cfg.ImageFetchTimeout <= 0 {
		cfg.ImageFetchTimeout = 15 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.AssetsDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure assets directory: %w", err)
	}

	return cfg, nil
}
