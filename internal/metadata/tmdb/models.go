package tmdb

import "github.com/streamscout/streamscout/internal/scout"

// GenresResponse is the body of /genre/{type}/list.
type GenresResponse struct {
	Genres []scout.Genre `json:"genres"`
}

// ExternalIDs contains external IDs from TMDB.
type ExternalIDs struct {
	ID          int    `json:"id"`
	ImdbID      string `json:"imdb_id"`
	TvdbID      int    `json:"tvdb_id"`
	WikidataID  string `json:"wikidata_id"`
	FacebookID  string `json:"facebook_id"`
	InstagramID string `json:"instagram_id"`
	TwitterID   string `json:"twitter_id"`
}

// WatchProvidersResponse is the body of /{type}/{id}/watch/providers.
type WatchProvidersResponse struct {
	ID      int                           `json:"id"`
	Results map[string]scout.RegionOffers `json:"results"`
}

// ErrorResponse is an error from the TMDB API.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
