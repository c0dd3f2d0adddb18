// Package recommend turns a model's free-form suggestions into enriched items
// anchored on one title.
package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/scout"
)

// Stage is how far a candidate got through resolution.
type Stage int

const (
	StageParsed Stage = iota
	StageRatingResolved
	StageCatalogResolved
	StageProvidersResolved
	StageItem
	StageDropped
)

func (s Stage) String() string {
	switch s {
	case StageParsed:
		return "parsed"
	case StageRatingResolved:
		return "rating_resolved"
	case StageCatalogResolved:
		return "catalog_resolved"
	case StageProvidersResolved:
		return "providers_resolved"
	case StageItem:
		return "item"
	case StageDropped:
		return "dropped"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

var (
	errNoExternalID = errors.New("candidate has no imdb id")
	errNoCatalogHit = errors.New("no catalog match")
	errIsAnchor     = errors.New("candidate is the anchor title")
)

// Config holds mapper settings.
type Config struct {
	Count        int
	HistoryLimit int
}

// Mapper asks the completer for suggestions and resolves each one against
// the rating and search catalogs.
type Mapper struct {
	completer Completer
	catalog   scout.Catalog
	ratings   scout.RatingSource
	pipeline  *scout.Pipeline
	cfg       Config
	logger    zerolog.Logger
}

// NewMapper creates a mapper. The pipeline supplies provider names and
// poster URLs.
func NewMapper(completer Completer, catalog scout.Catalog, ratings scout.RatingSource, pipeline *scout.Pipeline, cfg Config, logger zerolog.Logger) *Mapper {
	if cfg.Count <= 0 {
		cfg.Count = 6
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &Mapper{
		completer: completer,
		catalog:   catalog,
		ratings:   ratings,
		pipeline:  pipeline,
		cfg:       cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
	}
}

// IsConfigured reports whether both the completer and the rating catalog
// are available.
func (m *Mapper) IsConfigured() bool {
	return m.completer != nil && m.completer.IsConfigured() && m.ratings != nil
}

// Recommend returns enriched suggestions for req in the model's order.
// Completion failures are returned; a malformed completion yields an empty
// result and unresolvable candidates are dropped.
func (m *Mapper) Recommend(ctx context.Context, req Request) ([]scout.Item, error) {
	if !m.IsConfigured() {
		return nil, ErrNotConfigured
	}

	prompt := BuildPrompt(req, m.cfg.Count, m.cfg.HistoryLimit)
	text, err := m.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cands, err := ParseCandidates(text)
	if err != nil {
		m.logger.Warn().Err(err).Int("length", len(text)).Msg("Discarding completion")
		return []scout.Item{}, nil
	}

	anchor := req.AnchorKey()
	items := make([]scout.Item, 0, len(cands))
	for _, cand := range cands {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		it, ok := m.resolve(ctx, cand, anchor)
		if ok {
			items = append(items, it)
		}
	}

	m.logger.Info().
		Str("anchor", anchor).
		Int("suggested", len(cands)).
		Int("resolved", len(items)).
		Msg("Recommendations mapped")

	return items, nil
}

// resolution carries one candidate through the stages.
type resolution struct {
	cand      Candidate
	stage     Stage
	rating    *scout.RatingRecord
	mediaType scout.MediaType
	hit       scout.Hit
	providers []string
}

func (m *Mapper) resolve(ctx context.Context, cand Candidate, anchor string) (scout.Item, bool) {
	r := &resolution{cand: cand, stage: StageParsed}

	for r.stage != StageItem {
		from := r.stage
		if err := m.advance(ctx, r); err != nil {
			m.logger.Debug().
				Err(err).
				Str("title", cand.Title).
				Str("imdbId", cand.ExternalIDValue()).
				Stringer("stage", from).
				Msg("Candidate dropped")
			r.stage = StageDropped
			return scout.Item{}, false
		}
	}

	it := m.item(r)
	if it.Key == anchor {
		m.logger.Debug().Err(errIsAnchor).Str("key", it.Key).Stringer("stage", StageItem).Msg("Candidate dropped")
		return scout.Item{}, false
	}
	return it, true
}

// advance performs the transition out of r.stage.
func (m *Mapper) advance(ctx context.Context, r *resolution) error {
	switch r.stage {
	case StageParsed:
		id := r.cand.ExternalIDValue()
		if id == "" {
			return errNoExternalID
		}
		rec, err := m.ratings.LookupRating(ctx, id)
		if err != nil {
			return fmt.Errorf("rating lookup: %w", err)
		}
		r.rating = rec
		r.stage = StageRatingResolved

	case StageRatingResolved:
		r.mediaType = scout.MediaTypeFromRatingKind(r.rating.Kind)
		title := r.rating.Title
		if title == "" {
			title = r.cand.Title
		}
		page, err := m.catalog.SearchTitles(ctx, scout.SearchQuery{Type: r.mediaType, Query: title, Page: 1})
		if err != nil {
			return fmt.Errorf("catalog search: %w", err)
		}
		if len(page.Results) == 0 {
			return errNoCatalogHit
		}
		r.hit = page.Results[0]
		r.stage = StageCatalogResolved

	case StageCatalogResolved:
		r.providers = m.pipeline.Providers(ctx, r.mediaType, r.hit.ID)
		r.stage = StageProvidersResolved

	case StageProvidersResolved:
		r.stage = StageItem

	default:
		return fmt.Errorf("cannot advance from %s", r.stage)
	}
	return nil
}

func (m *Mapper) item(r *resolution) scout.Item {
	title := r.rating.Title
	if title == "" {
		title = r.hit.DisplayTitle(r.mediaType)
	}
	year := r.hit.Year()
	if year == "" {
		year = scout.YearOf(r.rating.Year)
	}

	return scout.Item{
		Key:        scout.KeyFor(r.mediaType, r.hit.ID, title),
		Type:       r.mediaType,
		Title:      title,
		Year:       year,
		Poster:     m.pipeline.PosterURL(r.hit.PosterPath),
		NativeID:   r.hit.ID,
		ExternalID: r.cand.ExternalIDValue(),
		Rating:     scout.NormalizeRating(r.rating.Rating),
		Providers:  r.providers,
		Reason:     r.cand.Reason,
	}
}
