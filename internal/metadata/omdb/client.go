package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/scout"
)

var (
	ErrAPIKeyMissing = errors.New("OMDb API key is not configured")
	ErrNotFound      = errors.New("not found on OMDb")
	ErrAPIError      = errors.New("OMDb API error")
)

// Client is an OMDb API client.
type Client struct {
	httpClient *http.Client
	config     config.OMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new OMDb client.
func NewClient(cfg config.OMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "omdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the OMDb API.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.LookupRating(ctx, "tt0133093") // The Matrix
	return err
}

// Get forwards arbitrary query parameters with the API key attached and
// returns the body untouched. OMDb reports lookup failures in a 200 body,
// which is relayed as is.
func (c *Client) Get(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	query := url.Values{}
	for k, v := range params {
		if strings.EqualFold(k, "apikey") {
			continue
		}
		query[k] = append([]string(nil), v...)
	}
	query.Set("apikey", c.config.APIKey)

	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("OMDb API error")
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// LookupRating fetches the title record for an IMDb id.
func (c *Client) LookupRating(ctx context.Context, imdbID string) (*scout.RatingRecord, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("i", imdbID)

	body, err := c.Get(ctx, params)
	if err != nil {
		return nil, err
	}

	var omdbResp Response
	if err := json.Unmarshal(body, &omdbResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if omdbResp.Response == "False" {
		if isNotFound(omdbResp.Error) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, imdbID)
		}
		c.logger.Warn().Str("error", omdbResp.Error).Str("imdbId", imdbID).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, omdbResp.Error)
	}

	rec := &scout.RatingRecord{
		ExternalID: firstNonEmpty(omdbResp.ImdbID, imdbID),
		Title:      omdbResp.Title,
		Year:       omdbResp.Year,
		Kind:       omdbResp.Type,
		Rating:     scout.NormalizeRating(omdbResp.ImdbRating),
	}

	c.logger.Debug().
		Str("imdbId", rec.ExternalID).
		Str("kind", rec.Kind).
		Str("rating", rec.Rating).
		Msg("Fetched OMDb record")

	return rec, nil
}

func isNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "incorrect imdb id")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
