package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/streamscout/streamscout/internal/detect"
	"github.com/streamscout/streamscout/internal/metadata/omdb"
	"github.com/streamscout/streamscout/internal/scout"
)

// maxDetectBody caps the page HTML accepted by the detect route.
const maxDetectBody = 5 << 20

var imdbIDPattern = regexp.MustCompile(`^tt\d{5,10}$`)

// ParseSearchState reads a search from query parameters.
func ParseSearchState(q url.Values) (scout.SearchFilterState, error) {
	state := scout.SearchFilterState{
		Query:  q.Get("query"),
		Type:   scout.ParseMediaType(q.Get("type")),
		Genres: scout.ParseGenres(q.Get("genres")),
		Page:   atoiOr(q.Get("page"), 1),
		Sort:   q.Get("sort"),
	}

	if raw := strings.TrimSpace(q.Get("minRating")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 10 {
			return state, fmt.Errorf("invalid minRating %q", raw)
		}
		state.MinRating = &v
	}

	for _, p := range strings.Split(q.Get("providers"), ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			state.Providers = append(state.Providers, p)
		}
	}

	if raw := q.Get("onlyAvailable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return state, fmt.Errorf("invalid onlyAvailable %q", raw)
		}
		state.OnlyAvailable = v
	}

	return state.Normalized(), nil
}

// EncodeSearchState is the inverse of ParseSearchState.
func EncodeSearchState(state scout.SearchFilterState) url.Values {
	q := url.Values{}
	if state.Query != "" {
		q.Set("query", state.Query)
	}
	q.Set("type", string(scout.ParseMediaType(string(state.Type))))
	if len(state.Genres) > 0 {
		q.Set("genres", scout.JoinGenres(state.Genres))
	}
	if state.MinRating != nil {
		q.Set("minRating", strconv.FormatFloat(*state.MinRating, 'f', -1, 64))
	}
	if len(state.Providers) > 0 {
		q.Set("providers", strings.Join(state.Providers, ","))
	}
	if state.OnlyAvailable {
		q.Set("onlyAvailable", "true")
	}
	if state.Page > 1 {
		q.Set("page", strconv.Itoa(state.Page))
	}
	if state.Sort != "" {
		q.Set("sort", state.Sort)
	}
	return q
}

// Search runs the enrichment pipeline.
// GET /api/v1/search
func (h *Handlers) Search(c echo.Context) error {
	state, err := ParseSearchState(c.QueryParams())
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if !h.metadata.TMDB().IsConfigured() {
		return notConfigured(c, "tmdb")
	}

	items, err := h.pipeline.Search(c.Request().Context(), state)
	if err != nil {
		if errors.Is(err, scout.ErrEmptyQuery) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return h.upstreamFailed(c, "search", err)
	}
	return c.JSON(http.StatusOK, items)
}

// LookupIMDb resolves an IMDb id into an enriched item. A score the user
// already gave the title is carried over.
// GET /api/v1/lookup/imdb/:imdbId
func (h *Handlers) LookupIMDb(c echo.Context) error {
	id := strings.ToLower(strings.TrimSpace(c.Param("imdbId")))
	if !imdbIDPattern.MatchString(id) {
		return fail(c, http.StatusBadRequest, "invalid IMDb id")
	}
	if !h.metadata.TMDB().IsConfigured() {
		return notConfigured(c, "tmdb")
	}
	if !h.metadata.OMDB().IsConfigured() {
		return notConfigured(c, "omdb")
	}

	ctx := c.Request().Context()
	item, err := h.pipeline.LookupExternal(ctx, id)
	if err != nil {
		if errors.Is(err, scout.ErrNotFound) || errors.Is(err, omdb.ErrNotFound) {
			return fail(c, http.StatusNotFound, "title not found")
		}
		return h.upstreamFailed(c, "lookup", err)
	}

	if h.stored != nil {
		stored, ok, err := h.stored.Find(ctx, item.Key)
		if err != nil {
			h.logger.Warn().Err(err).Str("key", item.Key).Msg("Stored item lookup failed")
		} else if ok {
			item.Score = stored.Score
		}
	}
	return c.JSON(http.StatusOK, item)
}

// Detect recognises the title of a page posted as HTML.
// POST /api/v1/detect?url=
func (h *Handlers) Detect(c echo.Context) error {
	body := io.LimitReader(c.Request().Body, maxDetectBody)

	d, err := detect.FromPage(c.QueryParam("url"), body)
	if err != nil {
		if errors.Is(err, detect.ErrNotDetected) {
			return fail(c, http.StatusNotFound, err.Error())
		}
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
