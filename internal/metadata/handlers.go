package metadata

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streamscout/streamscout/internal/scout"
)

// Handlers provides HTTP handlers for metadata operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the metadata routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/genres", h.GetGenres)
	g.DELETE("/cache", h.ClearCache)
	g.GET("/status", h.GetStatus)
}

// GetGenres returns the cached genre list.
// GET /api/v1/metadata/genres?type=movie|tv
func (h *Handlers) GetGenres(c echo.Context) error {
	t := scout.ParseMediaType(c.QueryParam("type"))

	genres, err := h.service.Catalog().Genres(c.Request().Context(), t)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, genres)
}

// ClearCache clears the metadata cache.
// DELETE /api/v1/metadata/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	h.service.ClearCache()
	return c.NoContent(http.StatusNoContent)
}

// GetStatus returns the status of configured metadata providers.
// GET /api/v1/metadata/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status())
}
