package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/streamscout/streamscout/internal/recommend"
	"github.com/streamscout/streamscout/internal/scout"
)

// DefaultURL is where a local gateway listens.
const DefaultURL = "http://localhost:8080"

// APIError is a non-2xx gateway response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.Status)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

// Client talks to a running gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a gateway client. token may be empty.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// Health checks that the gateway is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Genres lists catalog genres for a media type.
func (c *Client) Genres(ctx context.Context, t scout.MediaType) ([]scout.Genre, error) {
	var genres []scout.Genre
	q := url.Values{"type": {string(t)}}
	if err := c.do(ctx, http.MethodGet, "/tmdb_genres", q, nil, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// Search runs an enriched search.
func (c *Client) Search(ctx context.Context, state scout.SearchFilterState) ([]scout.Item, error) {
	var items []scout.Item
	if err := c.do(ctx, http.MethodGet, "/api/v1/search", EncodeSearchState(state), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Lookup resolves an IMDb id into an item.
func (c *Client) Lookup(ctx context.Context, imdbID string) (*scout.Item, error) {
	var item scout.Item
	if err := c.do(ctx, http.MethodGet, "/api/v1/lookup/imdb/"+url.PathEscape(imdbID), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Recommend asks for suggestions anchored on req.
func (c *Client) Recommend(ctx context.Context, req recommend.Request) ([]scout.Item, error) {
	var resp RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/ai_recommend", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Error
			if apiErr.Message == "" {
				apiErr.Message = envelope.Message
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
