package scout

import (
	"slices"
	"strings"
)

// DefaultDiscoverSort is used when browsing without a query.
const DefaultDiscoverSort = "popularity.desc"

// SearchFilterState is the complete, immutable input of a search.
type SearchFilterState struct {
	Query         string
	Type          MediaType
	Genres        []int
	MinRating     *float64
	Providers     []string
	OnlyAvailable bool
	Page          int
	Sort          string
}

// Normalized trims the query and clamps type and page.
func (s SearchFilterState) Normalized() SearchFilterState {
	s.Query = strings.TrimSpace(s.Query)
	s.Type = ParseMediaType(string(s.Type))
	if s.Page < 1 {
		s.Page = 1
	}
	if s.MinRating != nil && *s.MinRating <= 0 {
		s.MinRating = nil
	}
	return s
}

// IsDiscover reports whether the state browses by genre instead of searching.
func (s SearchFilterState) IsDiscover() bool {
	return strings.TrimSpace(s.Query) == "" && len(s.Genres) > 0
}

// MatchesGenres keeps hits that share a genre with the selection. An empty
// selection keeps everything.
func (s SearchFilterState) MatchesGenres(h Hit) bool {
	if len(s.Genres) == 0 {
		return true
	}
	for _, id := range h.GenreIDs {
		if slices.Contains(s.Genres, id) {
			return true
		}
	}
	return false
}

// Admit applies the filters that need enriched data, in order:
// availability, provider keys, minimum rating. The returned reason names the
// first filter that rejected the item.
func (s SearchFilterState) Admit(it Item) (ok bool, reason string) {
	if s.OnlyAvailable && len(it.Providers) == 0 {
		return false, "unavailable"
	}

	if len(s.Providers) > 0 && !s.matchesProviders(it.Providers) {
		return false, "provider"
	}

	if s.MinRating != nil {
		rating, ok := it.RatingValue()
		if !ok || rating < *s.MinRating {
			return false, "rating"
		}
	}

	return true, ""
}

func (s SearchFilterState) matchesProviders(names []string) bool {
	for _, name := range names {
		if slices.Contains(s.Providers, ProviderKey(name)) {
			return true
		}
	}
	return false
}
