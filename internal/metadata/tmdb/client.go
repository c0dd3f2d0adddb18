package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/scout"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("not found on TMDB")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
	ErrInvalidID     = errors.New("TMDB id must be a positive integer")
)

// Language is sent with every localized request.
const Language = "en-US"

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if a v4 token or a v3 API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.IsConfigured()
}

// ImageBaseURL returns the configured image CDN base.
func (c *Client) ImageBaseURL() string {
	return c.config.ImageBaseURL
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.Get(ctx, "/configuration", nil)
	return err
}

// Get performs an authenticated GET and returns the body untouched. The
// gateway relays these bodies verbatim.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	return c.doRequest(ctx, path, params)
}

// Genres returns the genre list for a media type. A body without a genres
// array yields an empty list.
func (c *Client) Genres(ctx context.Context, t scout.MediaType) ([]scout.Genre, error) {
	params := url.Values{}
	params.Set("language", Language)

	body, err := c.Get(ctx, fmt.Sprintf("/genre/%s/list", t), params)
	if err != nil {
		return nil, err
	}

	var resp GenresResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Genres == nil {
		return []scout.Genre{}, nil
	}
	return resp.Genres, nil
}

// SearchParams builds the query string of a title search.
func SearchParams(q scout.SearchQuery) url.Values {
	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("language", Language)
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(max(q.Page, 1)))
	if len(q.Genres) > 0 {
		params.Set("with_genres", scout.JoinGenres(q.Genres))
	}
	return params
}

// DiscoverParams builds the query string of a discover call.
func DiscoverParams(q scout.DiscoverQuery) url.Values {
	params := url.Values{}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = scout.DefaultDiscoverSort
	}
	params.Set("sort_by", sortBy)
	params.Set("language", Language)
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(max(q.Page, 1)))
	if len(q.Genres) > 0 {
		params.Set("with_genres", scout.JoinGenres(q.Genres))
	}
	return params
}

// SearchTitles searches movies or series by title.
func (c *Client) SearchTitles(ctx context.Context, q scout.SearchQuery) (*scout.HitPage, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, scout.ErrEmptyQuery
	}

	body, err := c.Get(ctx, fmt.Sprintf("/search/%s", q.Type), SearchParams(q))
	if err != nil {
		return nil, err
	}

	page, err := decodeHitPage(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", q.Query).
		Str("type", string(q.Type)).
		Int("results", len(page.Results)).
		Msg("Title search completed")

	return page, nil
}

// Discover browses titles by genre and sort order.
func (c *Client) Discover(ctx context.Context, q scout.DiscoverQuery) (*scout.HitPage, error) {
	body, err := c.Get(ctx, fmt.Sprintf("/discover/%s", q.Type), DiscoverParams(q))
	if err != nil {
		return nil, err
	}
	return decodeHitPage(body)
}

// ExternalIDs returns the external ids of a title.
func (c *Client) ExternalIDs(ctx context.Context, t scout.MediaType, id int) (*ExternalIDs, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	body, err := c.Get(ctx, fmt.Sprintf("/%s/%d/external_ids", t, id), nil)
	if err != nil {
		return nil, err
	}

	var ids ExternalIDs
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ids, nil
}

// ExternalID returns the IMDb id of a title, or "" when TMDB has none.
func (c *Client) ExternalID(ctx context.Context, t scout.MediaType, id int) (string, error) {
	ids, err := c.ExternalIDs(ctx, t, id)
	if err != nil {
		return "", err
	}
	return ids.ImdbID, nil
}

// WatchProviders returns availability keyed by country code.
func (c *Client) WatchProviders(ctx context.Context, t scout.MediaType, id int) (map[string]scout.RegionOffers, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	body, err := c.Get(ctx, fmt.Sprintf("/%s/%d/watch/providers", t, id), nil)
	if err != nil {
		return nil, err
	}

	var resp WatchProvidersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Results == nil {
		resp.Results = map[string]scout.RegionOffers{}
	}
	return resp.Results, nil
}

// doRequest performs a GET and returns the raw body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.config.AccessToken == "" {
		params.Set("api_key", c.config.APIKey)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("path", path).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, ErrNotFound
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: invalid credentials", ErrAPIError)
		case http.StatusTooManyRequests:
			return nil, ErrRateLimited
		default:
			return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	return body, nil
}

func decodeHitPage(body []byte) (*scout.HitPage, error) {
	var page scout.HitPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if page.Results == nil {
		page.Results = []scout.Hit{}
	}
	return &page, nil
}
