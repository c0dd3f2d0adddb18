package metadata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/scout"
)

// CachingCatalog wraps a TMDB client and caches the lookups that are stable
// for a given title: genres, external ids and provider offers. Searches are
// always forwarded.
type CachingCatalog struct {
	client TMDBClient
	cache  *Cache
	logger zerolog.Logger
}

// NewCachingCatalog creates a caching catalog over client.
func NewCachingCatalog(client TMDBClient, cache *Cache, logger zerolog.Logger) *CachingCatalog {
	return &CachingCatalog{
		client: client,
		cache:  cache,
		logger: logger.With().Str("component", "catalog-cache").Logger(),
	}
}

// Genres returns the cached genre list for t.
func (c *CachingCatalog) Genres(ctx context.Context, t scout.MediaType) ([]scout.Genre, error) {
	key := fmt.Sprintf("genres:%s", t)
	if genres, ok := cached[[]scout.Genre](c.cache, key); ok {
		return genres, nil
	}

	genres, err := c.client.Genres(ctx, t)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, genres)
	return genres, nil
}

// SearchTitles forwards to the client.
func (c *CachingCatalog) SearchTitles(ctx context.Context, q scout.SearchQuery) (*scout.HitPage, error) {
	return c.client.SearchTitles(ctx, q)
}

// Discover forwards to the client.
func (c *CachingCatalog) Discover(ctx context.Context, q scout.DiscoverQuery) (*scout.HitPage, error) {
	return c.client.Discover(ctx, q)
}

// ExternalID returns the cached IMDb id of a title. A known missing id is
// cached as "".
func (c *CachingCatalog) ExternalID(ctx context.Context, t scout.MediaType, id int) (string, error) {
	key := fmt.Sprintf("external:%s:%d", t, id)
	if ext, ok := cached[string](c.cache, key); ok {
		return ext, nil
	}

	ext, err := c.client.ExternalID(ctx, t, id)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, ext)
	return ext, nil
}

// WatchProviders returns cached provider offers of a title.
func (c *CachingCatalog) WatchProviders(ctx context.Context, t scout.MediaType, id int) (map[string]scout.RegionOffers, error) {
	key := fmt.Sprintf("providers:%s:%d", t, id)
	if offers, ok := cached[map[string]scout.RegionOffers](c.cache, key); ok {
		return offers, nil
	}

	offers, err := c.client.WatchProviders(ctx, t, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, offers)
	c.logger.Debug().Str("type", string(t)).Int("id", id).Int("regions", len(offers)).Msg("Cached provider offers")
	return offers, nil
}

// Invalidate drops the cached external id and offers of one title.
func (c *CachingCatalog) Invalidate(t scout.MediaType, id int) {
	c.cache.Delete(fmt.Sprintf("external:%s:%d", t, id))
	c.cache.Delete(fmt.Sprintf("providers:%s:%d", t, id))
}
