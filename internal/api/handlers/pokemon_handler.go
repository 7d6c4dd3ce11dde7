package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/pokedex/backend/internal/api/middleware"
	"github.com/Wikid82/pokedex/backend/internal/services"
	"github.com/Wikid82/pokedex/backend/internal/util"
)

// Notifier sends a short message to external destinations without blocking.
type Notifier interface {
	SendExternal(title, message string)
}

// PokemonHandler serves the pokedex collection.
type PokemonHandler struct {
	service  *services.PokemonService
	sealer   *services.Sealer
	notifier Notifier
}

// NewPokemonHandler creates a pokemon handler. notifier may be nil.
func NewPokemonHandler(service *services.PokemonService, sealer *services.Sealer, notifier Notifier) *PokemonHandler {
	return &PokemonHandler{service: service, sealer: sealer, notifier: notifier}
}

// RegisterRoutes registers pokemon routes.
func (h *PokemonHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/pokemons", h.List)
	router.GET("/pokemonsByPage/:page", h.ListPage)
	router.GET("/pokemons/:id", h.Get)
	router.GET("/pokemonByName/:name", h.GetByName)
	router.GET("/pokemonExactByName/:name", h.GetByExactName)
	router.GET("/pokemonsSearch", h.Search)
	router.DELETE("/pokemonsPurge", h.Purge)
	router.POST("/pokemonCreate", h.Create)
	router.PUT("/pokemonUpdate/:name", h.Update)
	router.DELETE("/pokemonDelete/:name", h.Delete)
}

// List returns every pokemon ordered by id.
func (h *PokemonHandler) List(c *gin.Context) {
	list, err := h.service.List()
	if err != nil {
		h.respondError(c, err, "failed to list pokemons")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealAll(list))
}

// ListPage returns one page of pokemons. A page that is not a number is page 0.
func (h *PokemonHandler) ListPage(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		page = 0
	}
	list, err := h.service.ListPage(page)
	if err != nil {
		h.respondError(c, err, "failed to list pokemons")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealAll(list))
}

func (h *PokemonHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer", "field": "id"})
		return
	}
	p, err := h.service.GetByID(uint(id))
	if err != nil {
		h.respondError(c, err, "failed to get pokemon")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealPokemon(*p))
}

// GetByName matches the english name exactly, case included.
func (h *PokemonHandler) GetByName(c *gin.Context) {
	p, err := h.service.GetByEnglishName(c.Param("name"))
	if err != nil {
		h.respondError(c, err, "failed to get pokemon")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealPokemon(*p))
}

// GetByExactName matches the english or french name ignoring case.
func (h *PokemonHandler) GetByExactName(c *gin.Context) {
	p, err := h.service.GetByExactName(strings.TrimSpace(c.Param("name")))
	if err != nil {
		h.respondError(c, err, "failed to get pokemon")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealPokemon(*p))
}

// Search matches the name query against both locales, ignoring case and accents.
func (h *PokemonHandler) Search(c *gin.Context) {
	list, err := h.service.Search(c.Query("name"))
	if err != nil {
		h.respondError(c, err, "failed to search pokemons")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealAll(list))
}

// Purge deletes the whole collection.
func (h *PokemonHandler) Purge(c *gin.Context) {
	n, err := h.service.Purge()
	if err != nil {
		h.respondError(c, err, "failed to purge pokemons")
		return
	}
	h.notify("Pokedex purged", fmt.Sprintf("%d pokemons deleted", n))
	c.JSON(http.StatusOK, gin.H{"deletedCount": n})
}

// Create validates the body, downloads the image and stores the new pokemon.
func (h *PokemonHandler) Create(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	in, err := services.ParseCreateInput(body)
	if err != nil {
		h.respondError(c, err, "failed to create pokemon")
		return
	}

	p, err := h.service.Create(c.Request.Context(), in, assetsURL(c))
	if err != nil {
		if errors.Is(err, services.ErrImageFetch) {
			h.respondError(c, err, "failed to download image")
			return
		}
		h.respondError(c, err, "failed to create pokemon")
		return
	}

	h.notify("Pokemon created", fmt.Sprintf("#%d %s (%s)", p.ID,
		util.SanitizeForLog(p.Name.English), util.SanitizeForLog(p.Name.French)))
	c.JSON(http.StatusCreated, h.sealer.SealPokemon(*p))
}

// Update replaces the fields the body provides on the pokemon with the given
// english name.
func (h *PokemonHandler) Update(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	patch, err := services.ParsePatch(body)
	if err != nil {
		h.respondError(c, err, "failed to update pokemon")
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one of name, type, base or image is required", "field": "body"})
		return
	}

	p, err := h.service.Update(c.Param("name"), patch)
	if err != nil {
		h.respondError(c, err, "failed to update pokemon")
		return
	}
	c.JSON(http.StatusOK, h.sealer.SealPokemon(*p))
}

// Delete removes the pokemon with the given english name and returns it.
func (h *PokemonHandler) Delete(c *gin.Context) {
	p, err := h.service.Delete(c.Param("name"))
	if err != nil {
		h.respondError(c, err, "failed to delete pokemon")
		return
	}
	h.notify("Pokemon deleted", fmt.Sprintf("#%d %s", p.ID, util.SanitizeForLog(p.Name.English)))
	c.JSON(http.StatusOK, h.sealer.SealPokemon(*p))
}

// readBody reads at most middleware.MaxBodyBytes and answers 413 beyond that.
func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, middleware.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("request body must not exceed %d bytes", tooLarge.Limit),
				"field": "body",
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body", "field": "body"})
		return nil, false
	}
	return body, true
}

func (h *PokemonHandler) notify(title, message string) {
	if h.notifier != nil {
		h.notifier.SendExternal(title, message)
	}
}

// respondError maps service errors to HTTP statuses. Anything unexpected is
// logged and answered with the generic message.
func (h *PokemonHandler) respondError(c *gin.Context, err error, message string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, services.ErrPokemonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "pokemon not found"})
	case errors.Is(err, services.ErrDuplicatePokemon):
		c.JSON(http.StatusConflict, gin.H{"error": "a pokemon with this english or french name already exists"})
	default:
		middleware.GetRequestLogger(c).WithFields(logrus.Fields{
			"route": c.FullPath(),
		}).WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

// assetsURL is the externally visible base URL of the stored images.
func assetsURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := strings.ToLower(strings.TrimSpace(strings.Split(c.GetHeader("X-Forwarded-Proto"), ",")[0])); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/assets"
}

