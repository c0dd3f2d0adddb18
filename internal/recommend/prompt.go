package recommend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/streamscout/streamscout/internal/scout"
)

// Request is the body of an AI recommendation call.
type Request struct {
	Key        string          `json:"key,omitempty"`
	NativeID   int             `json:"tmdbId,omitempty"`
	Title      string          `json:"title"`
	Year       string          `json:"year"`
	Type       scout.MediaType `json:"type"`
	ImdbRating string          `json:"imdbRating,omitempty"`
	Providers  []string        `json:"providers,omitempty"`
	Mood       string          `json:"mood"`
	// WatchedProfile is the user's rated history.
	WatchedProfile []scout.Item `json:"watchedProfile,omitempty"`
}

// AnchorKey returns the key of the title the suggestions are anchored on.
func (r Request) AnchorKey() string {
	if r.Key != "" {
		return r.Key
	}
	return scout.KeyFor(scout.ParseMediaType(string(r.Type)), r.NativeID, r.Title)
}

// TopRated returns up to limit scored history items, highest score first.
// Unscored and N/A items are skipped.
func TopRated(history []scout.Item, limit int) []scout.Item {
	rated := make([]scout.Item, 0, len(history))
	for _, it := range history {
		if it.Score.IsSet() {
			rated = append(rated, it)
		}
	}
	slices.SortStableFunc(rated, func(a, b scout.Item) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(rated) > limit {
		rated = rated[:limit]
	}
	return rated
}

// BuildPrompt renders the completion prompt for req.
func BuildPrompt(req Request, count, historyLimit int) string {
	var b strings.Builder

	b.WriteString("You recommend movies and TV series.\n")
	fmt.Fprintf(&b, "The user is looking at %q", req.Title)
	if req.Year != "" {
		fmt.Fprintf(&b, " (%s)", req.Year)
	}
	fmt.Fprintf(&b, ", a %s.\n", strings.ToLower(scout.ParseMediaType(string(req.Type)).Label()))

	if top := TopRated(req.WatchedProfile, historyLimit); len(top) > 0 {
		b.WriteString("Titles the user has rated from 1 to 10:\n")
		for _, it := range top {
			fmt.Fprintf(&b, "- %s", it.Title)
			if it.Year != "" {
				fmt.Fprintf(&b, " (%s)", it.Year)
			}
			fmt.Fprintf(&b, " [%s]: %d/10\n", it.Type, int(it.Score))
		}
	}

	if mood := strings.TrimSpace(req.Mood); mood != "" {
		fmt.Fprintf(&b, "What the user is in the mood for: %s\n", mood)
	}

	fmt.Fprintf(&b, "Suggest exactly %d other titles they are likely to enjoy. ", count)
	b.WriteString("Answer with a JSON array only, no prose and no Markdown. Each element must be ")
	b.WriteString(`{"title": string, "year": string, "type": "movie" or "tv", "imdbId": string, "reason": string}`)
	b.WriteString(", where imdbId is the title's IMDb id (tt followed by digits) and reason is one short sentence.\n")

	return b.String()
}
