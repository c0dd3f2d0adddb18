package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/streamscout/streamscout/internal/metadata/tmdb"
	"github.com/streamscout/streamscout/internal/recommend"
	"github.com/streamscout/streamscout/internal/scout"
)

// TMDBGenres returns the genre array for a media type, or [] on failure.
// GET /tmdb_genres?type=movie|tv
func (h *Handlers) TMDBGenres(c echo.Context) error {
	if !h.metadata.TMDB().IsConfigured() {
		return notConfigured(c, "tmdb")
	}

	t := scout.ParseMediaType(c.QueryParam("type"))
	genres, err := h.metadata.Catalog().Genres(c.Request().Context(), t)
	if err != nil {
		h.logger.Error().Err(err).Str("route", "tmdb_genres").Msg("Upstream request failed")
		return c.JSON(http.StatusInternalServerError, []scout.Genre{})
	}
	return c.JSON(http.StatusOK, genres)
}

// TMDBSearch relays a title search.
// GET /tmdb_search?type=&query=&page=&with_genres=
func (h *Handlers) TMDBSearch(c echo.Context) error {
	if !h.metadata.TMDB().IsConfigured() {
		return notConfigured(c, "tmdb")
	}

	t := scout.ParseMediaType(c.QueryParam("type"))
	params := tmdb.SearchParams(scout.SearchQuery{
		Type:   t,
		Query:  c.QueryParam("query"),
		Page:   atoiOr(c.QueryParam("page"), 1),
		Genres: scout.ParseGenres(c.QueryParam("with_genres")),
	})

	body, err := h.metadata.TMDB().Get(c.Request().Context(), "/search/"+string(t), params)
	if err != nil {
		return h.upstreamFailed(c, "tmdb_search", err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// TMDBDiscover relays a browse-by-filter call.
// GET /tmdb_discover?type=&sort_by=&with_genres=&page=
func (h *Handlers) TMDBDiscover(c echo.Context) error {
	if !h.metadata.TMDB().IsConfigured() {
		return notConfigured(c, "tmdb")
	}

	t := scout.ParseMediaType(c.QueryParam("type"))
	params := tmdb.DiscoverParams(scout.DiscoverQuery{
		Type:   t,
		SortBy: c.QueryParam("sort_by"),
		Genres: scout.ParseGenres(c.QueryParam("with_genres")),
		Page:   atoiOr(c.QueryParam("page"), 1),
	})

	body, err := h.metadata.TMDB().Get(c.Request().Context(), "/discover/"+string(t), params)
	if err != nil {
		return h.upstreamFailed(c, "tmdb_discover", err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// TMDBExternalIDs relays the external id record of a title.
// GET /tmdb_external_ids?type=&id=
func (h *Handlers) TMDBExternalIDs(c echo.Context) error {
	return h.relayTitlePath(c, "tmdb_external_ids", "external_ids")
}

// TMDBProviders relays the watch provider record of a title.
// GET /tmdb_providers?type=&id=
func (h *Handlers) TMDBProviders(c echo.Context) error {
	return h.relayTitlePath(c, "tmdb_providers", "watch/providers")
}

func (h *Handlers) relayTitlePath(c echo.Context, route, suffix string) error {
	id, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("id")))
	if err != nil || id <= 0 {
		return fail(c, http.StatusBadRequest, tmdb.ErrInvalidID.Error())
	}
	if !h.metadata.TMDB().IsConfigured() {
		return notConfigured(c, "tmdb")
	}

	t := scout.ParseMediaType(c.QueryParam("type"))
	path := fmt.Sprintf("/%s/%d/%s", t, id, suffix)

	body, err := h.metadata.TMDB().Get(c.Request().Context(), path, nil)
	if err != nil {
		return h.upstreamFailed(c, route, err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// OMDb relays any OMDb query with the server's API key.
// GET /omdb?i=tt...
func (h *Handlers) OMDb(c echo.Context) error {
	if !h.metadata.OMDB().IsConfigured() {
		return notConfigured(c, "omdb")
	}

	body, err := h.metadata.OMDB().Get(c.Request().Context(), c.QueryParams())
	if err != nil {
		return h.upstreamFailed(c, "omdb", err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// AIRecommend maps model suggestions for an anchor title into items.
// POST /ai_recommend
func (h *Handlers) AIRecommend(c echo.Context) error {
	if h.mapper == nil || !h.mapper.IsConfigured() {
		return notConfigured(c, "openai")
	}

	var req recommend.Request
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" && req.Key == "" {
		return fail(c, http.StatusBadRequest, "title is required")
	}

	items, err := h.mapper.Recommend(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, recommend.ErrNotConfigured) {
			return notConfigured(c, "openai")
		}
		return h.upstreamFailed(c, "ai_recommend", err)
	}
	return c.JSON(http.StatusOK, RecommendResponse{Items: items})
}

func atoiOr(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v > 0 {
		return v
	}
	return def
}
