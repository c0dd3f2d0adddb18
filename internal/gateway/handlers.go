// Package gateway serves the proxy routes the browser extension calls and
// the native search, lookup and detection API built on the same upstreams.
package gateway

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/metadata"
	"github.com/streamscout/streamscout/internal/recommend"
	"github.com/streamscout/streamscout/internal/scout"
)

// ErrorResponse is the error envelope of every gateway route.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecommendResponse is the body returned by the recommendation route.
type RecommendResponse struct {
	Items []scout.Item `json:"items"`
}

// StoredItems finds titles the user already keeps in a list.
type StoredItems interface {
	Find(ctx context.Context, key string) (scout.Item, bool, error)
}

// Handlers provides the gateway HTTP handlers.
type Handlers struct {
	metadata *metadata.Service
	pipeline *scout.Pipeline
	mapper   *recommend.Mapper
	stored   StoredItems
	logger   zerolog.Logger
}

// NewHandlers creates gateway handlers. stored may be nil.
func NewHandlers(service *metadata.Service, pipeline *scout.Pipeline, mapper *recommend.Mapper, stored StoredItems, logger zerolog.Logger) *Handlers {
	return &Handlers{
		metadata: service,
		pipeline: pipeline,
		mapper:   mapper,
		stored:   stored,
		logger:   logger.With().Str("component", "gateway").Logger(),
	}
}

// RegisterLegacyRoutes registers the proxy routes at the server root.
func (h *Handlers) RegisterLegacyRoutes(g *echo.Group) {
	g.GET("/tmdb_genres", h.TMDBGenres)
	g.GET("/tmdb_search", h.TMDBSearch)
	g.GET("/tmdb_discover", h.TMDBDiscover)
	g.GET("/tmdb_external_ids", h.TMDBExternalIDs)
	g.GET("/tmdb_providers", h.TMDBProviders)
	g.GET("/omdb", h.OMDb)
	g.GET("/omdb/", h.OMDb)
	g.POST("/ai_recommend", h.AIRecommend)
}

// RegisterRoutes registers the native routes on the API group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
	g.GET("/lookup/imdb/:imdbId", h.LookupIMDb)
	g.POST("/detect", h.Detect)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg})
}

func (h *Handlers) upstreamFailed(c echo.Context, route string, err error) error {
	h.logger.Error().Err(err).Str("route", route).Msg("Upstream request failed")
	return fail(c, http.StatusInternalServerError, route+" request failed")
}

func notConfigured(c echo.Context, upstream string) error {
	return fail(c, http.StatusServiceUnavailable, upstream+" not configured")
}
