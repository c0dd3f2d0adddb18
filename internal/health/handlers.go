package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service) *Handlers {
	return &Handlers{health: health}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.POST("/test", h.TestAll)
	g.POST("/:id/test", h.TestItem)
}

// GetAll returns every tracked upstream.
// GET /api/v1/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// TestAll re-checks every upstream and returns the new state.
// POST /api/v1/health/test
func (h *Handlers) TestAll(c echo.Context) error {
	_ = h.health.Test(c.Request().Context())
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// TestItem re-checks one upstream.
// POST /api/v1/health/:id/test
func (h *Handlers) TestItem(c echo.Context) error {
	id := c.Param("id")
	if h.health.GetItem(id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown upstream")
	}

	_ = h.health.TestItem(c.Request().Context(), id)
	return c.JSON(http.StatusOK, h.health.GetItem(id))
}
