package metadata

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/streamscout/streamscout/internal/scout"
)

// TMDBClient defines the interface for TMDB API operations.
type TMDBClient interface {
	scout.Catalog
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	Genres(ctx context.Context, t scout.MediaType) ([]scout.Genre, error)
	ImageBaseURL() string
}

// OMDBClient defines the interface for OMDb API operations.
type OMDBClient interface {
	scout.RatingSource
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	Get(ctx context.Context, params url.Values) (json.RawMessage, error)
}
