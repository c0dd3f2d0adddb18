package lists

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/streamscout/streamscout/internal/scout"
)

// Handlers provides HTTP handlers for list operations.
type Handlers struct {
	store   *Store
	history *History
}

// NewHandlers creates list handlers. history may be nil.
func NewHandlers(store *Store, history *History) *Handlers {
	return &Handlers{store: store, history: history}
}

// RegisterRoutes registers list routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/history", h.History)
	g.GET("/membership/:key", h.Membership)
	g.POST("/move", h.Move)
	g.POST("/mark-watched", h.MarkWatched)
	g.PUT("/score", h.SetScore)
	g.GET("/:name", h.Items)
	g.POST("/:name", h.Add)
	g.DELETE("/:name/:key", h.Remove)
}

// MoveRequest is the body of a move.
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Key  string `json:"key"`
}

// ScoreRequest is the body of a score update.
type ScoreRequest struct {
	Key   string      `json:"key"`
	Score scout.Score `json:"score"`
}

// Items returns one list.
// GET /api/v1/lists/:name
func (h *Handlers) Items(c echo.Context) error {
	items, err := h.store.Items(c.Request().Context(), c.Param("name"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// Add appends an item to a list.
// POST /api/v1/lists/:name
func (h *Handlers) Add(c echo.Context) error {
	var item scout.Item
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item")
	}

	added, err := h.store.Add(c.Request().Context(), c.Param("name"), item)
	if err != nil {
		return toHTTPError(err)
	}
	if !added {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, item.Normalized())
}

// Remove deletes an item from a list.
// DELETE /api/v1/lists/:name/:key
func (h *Handlers) Remove(c echo.Context) error {
	if _, err := h.store.Remove(c.Request().Context(), c.Param("name"), pathKey(c)); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Move transfers an item between lists.
// POST /api/v1/lists/move
func (h *Handlers) Move(c echo.Context) error {
	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := h.store.Move(c.Request().Context(), req.From, req.To, req.Key); err != nil {
		return toHTTPError(err)
	}
	return h.membershipResponse(c, req.Key)
}

// MarkWatched moves an item onto the watched list.
// POST /api/v1/lists/mark-watched
func (h *Handlers) MarkWatched(c echo.Context) error {
	var item scout.Item
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item")
	}
	if err := h.store.MarkWatched(c.Request().Context(), item); err != nil {
		return toHTTPError(err)
	}
	return h.membershipResponse(c, item.Normalized().Key)
}

// SetScore updates an item's score in every list.
// PUT /api/v1/lists/score
func (h *Handlers) SetScore(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.store.SetScore(c.Request().Context(), req.Key, req.Score)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": updated})
}

// Membership reports which lists hold a key.
// GET /api/v1/lists/membership/:key
func (h *Handlers) Membership(c echo.Context) error {
	return h.membershipResponse(c, pathKey(c))
}

// History returns recent list changes.
// GET /api/v1/lists/history?key=&limit=
func (h *Handlers) History(c echo.Context) error {
	if h.history == nil {
		return c.JSON(http.StatusOK, []Event{})
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	events, err := h.history.List(c.Request().Context(), c.QueryParam("key"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handlers) membershipResponse(c echo.Context, key string) error {
	m, err := h.store.Membership(c.Request().Context(), key)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func pathKey(c echo.Context) string {
	key := c.Param("key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownList):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyKey), errors.Is(err, scout.ErrInvalidScore):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotInList), errors.Is(err, ErrAlreadyWatched):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
