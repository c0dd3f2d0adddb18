package metadata

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/metadata/omdb"
	"github.com/streamscout/streamscout/internal/metadata/tmdb"
	"github.com/streamscout/streamscout/internal/scout"
)

var ErrNoProvidersConfigured = errors.New("no metadata providers configured")

// Service owns the upstream clients and the response cache shared by the
// gateway, the pipeline and the scheduler.
type Service struct {
	tmdb    TMDBClient
	omdb    OMDBClient
	cache   *Cache
	catalog *CachingCatalog
	logger  zerolog.Logger
}

// NewService creates a metadata service with real API clients.
func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	return NewServiceWithClients(
		tmdb.NewClient(cfg.TMDB, logger),
		omdb.NewClient(cfg.OMDB, logger),
		CacheConfig{TTL: cfg.Cache.TTL, MaxItems: cfg.Cache.MaxItems},
		logger,
	)
}

// NewServiceWithClients creates a metadata service with custom clients.
func NewServiceWithClients(tmdbClient TMDBClient, omdbClient OMDBClient, cacheCfg CacheConfig, logger zerolog.Logger) *Service {
	cache := NewCache(cacheCfg)
	return &Service{
		tmdb:    tmdbClient,
		omdb:    omdbClient,
		cache:   cache,
		catalog: NewCachingCatalog(tmdbClient, cache, logger),
		logger:  logger.With().Str("component", "metadata").Logger(),
	}
}

// TMDB returns the raw TMDB client.
func (s *Service) TMDB() TMDBClient {
	return s.tmdb
}

// OMDB returns the raw OMDb client.
func (s *Service) OMDB() OMDBClient {
	return s.omdb
}

// Catalog returns the cached search catalog.
func (s *Service) Catalog() *CachingCatalog {
	return s.catalog
}

// Ratings returns the rating catalog, or nil when OMDb is not configured so
// that enrichment skips rating lookups entirely.
func (s *Service) Ratings() scout.RatingSource {
	if s.omdb == nil || !s.omdb.IsConfigured() {
		return nil
	}
	return s.omdb
}

// ImageBaseURL returns the TMDB image CDN base.
func (s *Service) ImageBaseURL() string {
	return s.tmdb.ImageBaseURL()
}

// ProviderStatus describes one upstream.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Status is the metadata section of the system status.
type Status struct {
	Providers  []ProviderStatus `json:"providers"`
	CacheItems int              `json:"cacheItems"`
}

// Status reports configured upstreams and cache size.
func (s *Service) Status() Status {
	st := Status{
		Providers:  []ProviderStatus{{Name: s.tmdb.Name(), Configured: s.tmdb.IsConfigured()}},
		CacheItems: s.cache.Len(),
	}
	if s.omdb != nil {
		st.Providers = append(st.Providers, ProviderStatus{Name: s.omdb.Name(), Configured: s.omdb.IsConfigured()})
	}
	return st
}

// Test checks connectivity of every configured upstream.
func (s *Service) Test(ctx context.Context) error {
	if !s.tmdb.IsConfigured() && (s.omdb == nil || !s.omdb.IsConfigured()) {
		return ErrNoProvidersConfigured
	}

	var errs []error
	if s.tmdb.IsConfigured() {
		if err := s.tmdb.Test(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.omdb != nil && s.omdb.IsConfigured() {
		if err := s.omdb.Test(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearCache removes all cached responses.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info().Msg("Metadata cache cleared")
}

// PruneCache drops expired cache entries.
func (s *Service) PruneCache() int {
	removed := s.cache.Prune()
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Pruned metadata cache")
	}
	return removed
}
