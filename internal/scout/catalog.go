package scout

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmptyQuery = errors.New("search query is empty")
	ErrNotFound   = errors.New("title not found")
)

// Hit is one raw result of a title search or discover call.
type Hit struct {
	ID            int    `json:"id"`
	Title         string `json:"title,omitempty"`
	OriginalTitle string `json:"original_title,omitempty"`
	Name          string `json:"name,omitempty"`
	OriginalName  string `json:"original_name,omitempty"`
	ReleaseDate   string `json:"release_date,omitempty"`
	FirstAirDate  string `json:"first_air_date,omitempty"`
	GenreIDs      []int  `json:"genre_ids"`
	PosterPath    string `json:"poster_path,omitempty"`
}

// DisplayTitle picks the localized title, falling back to the original one.
func (h Hit) DisplayTitle(t MediaType) string {
	if t == MediaTV {
		return firstNonEmpty(h.Name, h.OriginalName, h.Title)
	}
	return firstNonEmpty(h.Title, h.OriginalTitle, h.Name)
}

// Year returns the four digit release year, or "".
func (h Hit) Year() string {
	return YearOf(firstNonEmpty(h.ReleaseDate, h.FirstAirDate))
}

// HitPage is one page of search or discover results.
type HitPage struct {
	Page         int   `json:"page"`
	Results      []Hit `json:"results"`
	TotalPages   int   `json:"total_pages"`
	TotalResults int   `json:"total_results"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SearchQuery parameterises a title search.
type SearchQuery struct {
	Type   MediaType
	Query  string
	Page   int
	Genres []int
}

// DiscoverQuery parameterises a browse-by-filter call.
type DiscoverQuery struct {
	Type   MediaType
	SortBy string
	Genres []int
	Page   int
}

// RatingRecord is what the rating catalog knows about an external id.
type RatingRecord struct {
	ExternalID string `json:"imdbId"`
	Title      string `json:"title"`
	Year       string `json:"year"`
	Kind       string `json:"kind"`
	Rating     string `json:"rating,omitempty"`
}

// Catalog is the search catalog (TMDB, directly or through the gateway).
type Catalog interface {
	SearchTitles(ctx context.Context, q SearchQuery) (*HitPage, error)
	Discover(ctx context.Context, q DiscoverQuery) (*HitPage, error)
	// ExternalID returns the IMDb id, or "" when the catalog has none.
	ExternalID(ctx context.Context, t MediaType, id int) (string, error)
	// WatchProviders returns offers keyed by ISO 3166-1 country code.
	WatchProviders(ctx context.Context, t MediaType, id int) (map[string]RegionOffers, error)
}

// RatingSource is the rating catalog (OMDb, directly or through the gateway).
type RatingSource interface {
	LookupRating(ctx context.Context, externalID string) (*RatingRecord, error)
}

// JoinGenres renders genre ids the way the catalog expects them.
func JoinGenres(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// ParseGenres reads a comma separated id list, skipping junk.
func ParseGenres(s string) []int {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
