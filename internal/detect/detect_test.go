package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamscout/streamscout/internal/scout"
)

func TestIMDbIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.imdb.com/title/tt1160419/", "tt1160419"},
		{"https://m.IMDB.com/title/TT0903747/?ref_=nv", "tt0903747"},
		{"https://www.imdb.com/title/tt12345/reviews", "tt12345"},
		{"https://www.imdb.com/name/nm0000123/", ""},
		{"https://www.themoviedb.org/movie/438631-dune", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IMDbIDFromURL(tt.url))
		})
	}
}

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Detection
	}{
		{
			name: "json-ld object",
			html: `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@type":"Movie","name":"Dune","datePublished":"2021-10-22"}
			</script></head><body><h1 data-testid="hero-title-block__title">Ignored</h1></body></html>`,
			want: Detection{Title: "Dune", Year: "2021", Type: scout.MediaMovie, Source: SourceJSONLD},
		},
		{
			name: "json-ld array",
			html: `<script type="application/ld+json">[
				{"@type":"WebSite","name":"Example"},
				{"@type":"TVSeries","name":"Breaking Bad","startDate":"2008-01-20"}
			]</script>`,
			want: Detection{Title: "Breaking Bad", Year: "2008", Type: scout.MediaTV, Source: SourceJSONLD},
		},
		{
			name: "json-ld site metadata falls through",
			html: `<title>Home</title><script type="application/ld+json">{"@type":"WebSite","name":"Example"}</script>
				<h2><a href="/tv/1396-breaking-bad">Breaking Bad</a> <span class="tag release_date">(2008)</span></h2>`,
			want: Detection{Title: "Breaking Bad", Year: "2008", Type: scout.MediaTV, Source: SourceTMDB},
		},
		{
			name: "broken json-ld falls through",
			html: `<script type="application/ld+json">{oops</script>
				<h1 data-testid="hero-title-block__title"> Dune </h1>
				<ul data-testid="hero-title-block__metadata"><li>2021</li><li>PG-13</li></ul>`,
			want: Detection{Title: "Dune", Year: "2021", Type: scout.MediaMovie, Source: SourceIMDb},
		},
		{
			name: "imdb hero with episodes",
			html: `<h1 data-testid="hero-title-block__title">Breaking Bad</h1>
				<ul data-testid="hero-title-block__metadata"><li>TV Series 2008–2013</li></ul>
				<div data-testid="episodes-header">Episodes</div>`,
			want: Detection{Title: "Breaking Bad", Year: "2008", Type: scout.MediaTV, Source: SourceIMDb},
		},
		{
			name: "tmdb movie heading",
			html: `<h2><a href="/movie/438631-dune">Dune</a></h2>`,
			want: Detection{Title: "Dune", Type: scout.MediaMovie, Source: SourceTMDB},
		},
		{
			name: "document title",
			html: `<html><head><title>The Matrix (1999) - IMDb</title></head><body></body></html>`,
			want: Detection{Title: "The Matrix", Year: "1999", Type: scout.MediaMovie, Source: SourceDocTitle},
		},
		{
			name: "document title tv series",
			html: `<title>Dark (TV Series 2017–2020) - IMDb</title>`,
			want: Detection{Title: "Dark", Year: "2017", Type: scout.MediaTV, Source: SourceDocTitle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromHTML(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestFromHTML_NotDetected(t *testing.T) {
	_, err := FromHTML(strings.NewReader(`<html><head><title>Netflix</title></head><body><h2>Popular</h2></body></html>`))
	assert.ErrorIs(t, err, ErrNotDetected)
}

func TestFromPage(t *testing.T) {
	d, err := FromPage("https://www.imdb.com/title/tt1160419/", strings.NewReader(`<title>Dune: Part One (2021) - IMDb</title>`))
	require.NoError(t, err)
	assert.Equal(t, "tt1160419", d.ImdbID)
	assert.Equal(t, "Dune: Part One", d.Title)

	d, err = FromPage("https://www.imdb.com/title/tt0903747/", strings.NewReader(`<div>loading</div>`))
	require.NoError(t, err)
	assert.Equal(t, "tt0903747", d.ImdbID)
	assert.Empty(t, d.Title)

	_, err = FromPage("https://www.netflix.com/browse", strings.NewReader(`<div>loading</div>`))
	assert.ErrorIs(t, err, ErrNotDetected)
}
