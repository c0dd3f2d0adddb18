package scout

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
)

// PosterSize is the image width used for item posters.
const PosterSize = "w185"

// PipelineConfig holds enrichment settings.
type PipelineConfig struct {
	Region       string
	MaxResults   int
	ImageBaseURL string
}

// Pipeline turns raw catalog hits into filtered, enriched items.
type Pipeline struct {
	catalog Catalog
	ratings RatingSource
	cfg     PipelineConfig
	logger  zerolog.Logger
}

// NewPipeline creates a pipeline. ratings may be nil, in which case items
// carry no rating.
func NewPipeline(catalog Catalog, ratings RatingSource, cfg PipelineConfig, logger zerolog.Logger) *Pipeline {
	if cfg.Region == "" {
		cfg.Region = "US"
	}
	return &Pipeline{
		catalog: catalog,
		ratings: ratings,
		cfg:     cfg,
		logger:  logger.With().Str("component", "enrichment").Logger(),
	}
}

// Search runs one search for state and returns the surviving items in hit
// order. Only a failure of the search call itself is returned as an error;
// per-item lookups degrade to empty fields.
func (p *Pipeline) Search(ctx context.Context, state SearchFilterState) ([]Item, error) {
	state = state.Normalized()

	if state.Query == "" && len(state.Genres) == 0 {
		return nil, ErrEmptyQuery
	}

	page, err := p.fetchHits(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	hits := page.Results
	if p.cfg.MaxResults > 0 && len(hits) > p.cfg.MaxResults {
		hits = hits[:p.cfg.MaxResults]
	}

	// Genre filtering needs only the raw hit, so it runs before the fan-out.
	kept := hits[:0:0]
	for _, h := range hits {
		if state.MatchesGenres(h) {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return []Item{}, nil
	}

	mapper := iter.Mapper[Hit, *Item]{MaxGoroutines: len(kept)}
	enriched := mapper.Map(kept, func(h *Hit) *Item {
		return p.enrichFiltered(ctx, state, *h)
	})

	items := make([]Item, 0, len(enriched))
	for _, it := range enriched {
		if it != nil {
			items = append(items, *it)
		}
	}

	p.logger.Debug().
		Str("query", state.Query).
		Str("type", string(state.Type)).
		Int("hits", len(page.Results)).
		Int("items", len(items)).
		Msg("Search completed")

	return items, nil
}

func (p *Pipeline) fetchHits(ctx context.Context, state SearchFilterState) (*HitPage, error) {
	if state.IsDiscover() {
		sort := state.Sort
		if sort == "" {
			sort = DefaultDiscoverSort
		}
		return p.catalog.Discover(ctx, DiscoverQuery{
			Type:   state.Type,
			SortBy: sort,
			Genres: state.Genres,
			Page:   state.Page,
		})
	}
	return p.catalog.SearchTitles(ctx, SearchQuery{
		Type:   state.Type,
		Query:  state.Query,
		Page:   state.Page,
		Genres: state.Genres,
	})
}

func (p *Pipeline) enrichFiltered(ctx context.Context, state SearchFilterState, h Hit) *Item {
	it := p.Enrich(ctx, state.Type, h)
	if ok, reason := state.Admit(it); !ok {
		p.logger.Debug().Str("key", it.Key).Str("filter", reason).Msg("Item filtered out")
		return nil
	}
	return &it
}

// Enrich resolves external id, rating and providers for one hit. It never
// fails: each lookup that errors leaves its field empty.
func (p *Pipeline) Enrich(ctx context.Context, t MediaType, h Hit) Item {
	it := Item{
		Key:       KeyFor(t, h.ID, h.DisplayTitle(t)),
		Type:      t,
		Title:     h.DisplayTitle(t),
		Year:      h.Year(),
		Poster:    p.PosterURL(h.PosterPath),
		NativeID:  h.ID,
		Providers: []string{},
	}

	it.ExternalID = p.externalID(ctx, t, h.ID)
	if it.ExternalID != "" {
		it.Rating = p.rating(ctx, it.ExternalID)
	}
	it.Providers = p.Providers(ctx, t, h.ID)

	return it
}

// Refresh re-resolves rating and providers of a stored item. Identity
// fields and the user's score are left untouched.
func (p *Pipeline) Refresh(ctx context.Context, it Item) Item {
	if it.NativeID <= 0 {
		return it
	}
	if it.ExternalID == "" {
		it.ExternalID = p.externalID(ctx, it.Type, it.NativeID)
	}
	if it.ExternalID != "" {
		if rating := p.rating(ctx, it.ExternalID); rating != "" {
			it.Rating = rating
		}
	}
	it.Providers = p.Providers(ctx, it.Type, it.NativeID)
	return it
}

// LookupExternal resolves an IMDb id into a full item: rating catalog first,
// then a title search on the search catalog, then providers.
func (p *Pipeline) LookupExternal(ctx context.Context, externalID string) (*Item, error) {
	if p.ratings == nil {
		return nil, fmt.Errorf("%w: no rating catalog configured", ErrNotFound)
	}

	rec, err := p.ratings.LookupRating(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("rating lookup for %s: %w", externalID, err)
	}

	t := MediaTypeFromRatingKind(rec.Kind)
	page, err := p.catalog.SearchTitles(ctx, SearchQuery{Type: t, Query: rec.Title, Page: 1})
	if err != nil {
		return nil, fmt.Errorf("catalog search for %q: %w", rec.Title, err)
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("%w: no catalog match for %q", ErrNotFound, rec.Title)
	}

	hit := page.Results[0]
	year := hit.Year()
	if year == "" {
		year = YearOf(rec.Year)
	}

	it := Item{
		Key:        KeyFor(t, hit.ID, rec.Title),
		Type:       t,
		Title:      firstNonEmpty(rec.Title, hit.DisplayTitle(t)),
		Year:       year,
		Poster:     p.PosterURL(hit.PosterPath),
		NativeID:   hit.ID,
		ExternalID: externalID,
		Rating:     NormalizeRating(rec.Rating),
		Providers:  p.Providers(ctx, t, hit.ID),
	}
	return &it, nil
}

// Providers returns the flattened provider names for the configured region.
func (p *Pipeline) Providers(ctx context.Context, t MediaType, id int) []string {
	byRegion, err := p.catalog.WatchProviders(ctx, t, id)
	if err != nil {
		p.logger.Warn().Err(err).Str("type", string(t)).Int("id", id).Msg("Provider lookup failed")
		return []string{}
	}
	offers, ok := byRegion[strings.ToUpper(p.cfg.Region)]
	if !ok {
		return []string{}
	}
	return offers.ProviderNames()
}

// PosterURL builds the full poster URL for a catalog image path.
func (p *Pipeline) PosterURL(path string) string {
	if path == "" || p.cfg.ImageBaseURL == "" {
		return ""
	}
	return strings.TrimRight(p.cfg.ImageBaseURL, "/") + "/" + PosterSize + path
}

func (p *Pipeline) externalID(ctx context.Context, t MediaType, id int) string {
	ext, err := p.catalog.ExternalID(ctx, t, id)
	if err != nil {
		p.logger.Warn().Err(err).Str("type", string(t)).Int("id", id).Msg("External id lookup failed")
		return ""
	}
	return ext
}

func (p *Pipeline) rating(ctx context.Context, externalID string) string {
	if p.ratings == nil {
		return ""
	}
	rec, err := p.ratings.LookupRating(ctx, externalID)
	if err != nil {
		p.logger.Debug().Err(err).Str("imdbId", externalID).Msg("Rating lookup failed")
		return ""
	}
	return NormalizeRating(rec.Rating)
}
