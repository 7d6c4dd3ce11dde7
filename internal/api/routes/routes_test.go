package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Wikid82/pokedex/backend/internal/config"
	"github.com/Wikid82/pokedex/backend/internal/metrics"
	"github.com/Wikid82/pokedex/backend/internal/services"
)

func setupRouter(t *testing.T) (*gin.Engine, *services.AuditService, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := config.Config{
		Environment: "development",
		AssetsDir:   t.TempDir(),
		SealSecret:  "test-secret",
	}
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	audit := services.NewAuditService(db, 16)
	audit.Start()
	t.Cleanup(audit.Close)

	router := gin.New()
	err = Register(router, db, cfg, Services{
		Pokemons: services.NewPokemonService(db, services.NewImageService(time.Second), cfg.AssetsDir),
		Audit:    audit,
		Sealer:   services.NewSealer(cfg.SealSecret),
		Registry: registry,
	})
	require.NoError(t, err)
	return router, audit, cfg
}

func TestRegister(t *testing.T) {
	router, _, _ := setupRouter(t)

	registered := map[string]bool{}
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /",
		"GET /goodbye",
		"GET /health",
		"GET /metrics",
		"GET /pokemons",
		"GET /pokemonsByPage/:page",
		"GET /pokemons/:id",
		"GET /pokemonByName/:name",
		"GET /pokemonExactByName/:name",
		"GET /pokemonsSearch",
		"GET /auditLogs/:name",
		"DELETE /pokemonsPurge",
		"POST /pokemonCreate",
		"PUT /pokemonUpdate/:name",
		"DELETE /pokemonDelete/:name",
		"GET /assets/*filepath",
	} {
		assert.True(t, registered[want], "route %s should be registered", want)
	}
}

func TestRegister_ServesAssetsAndMetrics(t *testing.T) {
	router, _, cfg := setupRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsDir, "25.png"), []byte("png"), 0o644))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/25.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/26.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pokedex_http_requests_total")
}

func TestRegister_AuditsMutations(t *testing.T) {
	router, audit, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/pokemonDelete/Ditto", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pokemonByName/Ditto", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	audit.Close()
	logs, err := audit.ListByName("ditto", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, http.StatusNotFound, logs[0].StatusCode)
}

func TestRegister_RecoveredPanicIsAudited(t *testing.T) {
	router, audit, _ := setupRouter(t)
	router.POST("/explode/:name", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/explode/Voltorb", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	audit.Close()
	logs, err := audit.ListByName("voltorb", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, http.StatusInternalServerError, logs[0].StatusCode)
}
