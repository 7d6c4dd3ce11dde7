package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(16))
	router.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "limit %d", tooLarge.Limit)
			return
		}
		require.NoError(t, err)
		c.String(http.StatusOK, string(body))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Mew"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"name":"Mew"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Mewtwo the second"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "limit 16", w.Body.String())
}

func TestAudit_OversizedBodyKeepsReadError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &recordingAudit{}
	router := gin.New()
	router.Use(BodyLimit(8))
	router.Use(Audit(rec))
	router.POST("/pokemonCreate", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pokemonCreate", strings.NewReader(`{"name":"Snorlax"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].PokemonName)
	assert.Equal(t, http.StatusRequestEntityTooLarge, entries[0].StatusCode)
}
