// Package scout holds the title model shared by every Stream Scout surface and
// the pipeline that turns raw catalog hits into enriched items.
package scout

import (
	"strconv"
	"strings"
)

// MediaType distinguishes movies from TV series.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// ParseMediaType maps anything other than "tv" to movie, matching the
// catalog routes' own normalisation.
func ParseMediaType(s string) MediaType {
	if strings.EqualFold(strings.TrimSpace(s), string(MediaTV)) {
		return MediaTV
	}
	return MediaMovie
}

// MediaTypeFromRatingKind converts the rating catalog's kind ("movie",
// "series", "episode") into a search catalog type.
func MediaTypeFromRatingKind(kind string) MediaType {
	if strings.EqualFold(strings.TrimSpace(kind), "series") {
		return MediaTV
	}
	return MediaMovie
}

// Label returns the human label used in listings.
func (t MediaType) Label() string {
	if t == MediaTV {
		return "TV"
	}
	return "Movie"
}

// Item is a normalized, enriched title.
type Item struct {
	Key        string    `json:"key" yaml:"key"`
	Type       MediaType `json:"type" yaml:"type"`
	Title      string    `json:"title" yaml:"title"`
	Year       string    `json:"year" yaml:"year,omitempty"`
	Poster     string    `json:"poster" yaml:"poster,omitempty"`
	NativeID   int       `json:"tmdbId,omitempty" yaml:"tmdbId,omitempty"`
	ExternalID string    `json:"imdbId,omitempty" yaml:"imdbId,omitempty"`
	Rating     string    `json:"imdbRating,omitempty" yaml:"imdbRating,omitempty"`
	Providers  []string  `json:"providers" yaml:"providers,omitempty"`
	Score      Score     `json:"score,omitempty" yaml:"score,omitempty"`
	Reason     string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// KeyFor builds the identity of a title. The native id wins; the title is
// only used when the catalog id is unknown.
func KeyFor(t MediaType, nativeID int, title string) string {
	if nativeID > 0 {
		return string(t) + ":" + strconv.Itoa(nativeID)
	}
	return string(t) + ":" + strings.TrimSpace(title)
}

// Normalized fills in defaults for records that came from older storage or
// from untrusted clients. An existing key is never replaced.
func (it Item) Normalized() Item {
	it.Type = ParseMediaType(string(it.Type))
	if it.Key == "" {
		it.Key = KeyFor(it.Type, it.NativeID, it.Title)
	}
	it.Rating = NormalizeRating(it.Rating)
	if it.Providers == nil {
		it.Providers = []string{}
	}
	if len(it.Year) > 4 {
		it.Year = it.Year[:4]
	}
	return it
}

// RatingValue parses the rating. ok is false when there is no usable rating.
func (it Item) RatingValue() (value float64, ok bool) {
	if it.Rating == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(it.Rating, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeRating turns the rating catalog's placeholders into "".
func NormalizeRating(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return ""
	}
	return raw
}

// YearOf returns the first four characters of a catalog date.
func YearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
