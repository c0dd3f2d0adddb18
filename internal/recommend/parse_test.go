package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamscout/streamscout/internal/scout"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[1]`, `[1]`},
		{"whitespace", "  \n[1]\n ", `[1]`},
		{"bare fence", "```\n[1]\n```", `[1]`},
		{"json fence", "```json\n[1]\n```", `[1]`},
		{"single line", "```json[1]```", `[1]`},
		{"no closing fence", "```json\n[1]", `[1]`},
		{"prose", "Here you go", "Here you go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestParseCandidates(t *testing.T) {
	cands, err := ParseCandidates("```JSON\n" + `[
		{"title":"Interstellar","year":2014,"type":"movie","imdbId":"tt0816692","reason":"a"},
		{"title":"Dark","year":null,"type":"tv","externalId":"tt5753856"}
	]` + "\n```")
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, "2014", string(cands[0].Year))
	assert.Equal(t, "tt0816692", cands[0].ExternalIDValue())
	assert.Equal(t, "", string(cands[1].Year))
	assert.Equal(t, "tt5753856", cands[1].ExternalIDValue())
}

func TestParseCandidates_Rejects(t *testing.T) {
	for _, in := range []string{"", "null", `{"items":[]}`, `[{"title":`, `[{"year":true}]`} {
		_, err := ParseCandidates(in)
		assert.ErrorIs(t, err, ErrMalformedCompletion, in)
	}
}

func TestTopRated(t *testing.T) {
	history := []scout.Item{
		{Key: "movie:1", Title: "A", Score: 6},
		{Key: "movie:2", Title: "B", Score: scout.ScoreNA},
		{Key: "movie:3", Title: "C"},
		{Key: "movie:4", Title: "D", Score: 9},
		{Key: "movie:5", Title: "E", Score: 6},
	}

	top := TopRated(history, 10)
	keys := make([]string, len(top))
	for i, it := range top {
		keys[i] = it.Key
	}
	assert.Equal(t, []string{"movie:4", "movie:1", "movie:5"}, keys)

	assert.Len(t, TopRated(history, 2), 2)
}

func TestBuildPrompt(t *testing.T) {
	history := make([]scout.Item, 0, 12)
	for i := 1; i <= 12; i++ {
		history = append(history, scout.Item{Key: scout.KeyFor(scout.MediaMovie, i, ""), Title: "Rated " + string(rune('A'+i)), Type: scout.MediaMovie, Score: scout.Score(i%10 + 1)})
	}

	prompt := BuildPrompt(Request{Title: "Breaking Bad", Year: "2008", Type: scout.MediaTV, Mood: "tense", WatchedProfile: history}, 4, 3)

	assert.Contains(t, prompt, `"Breaking Bad" (2008), a tv.`)
	assert.Contains(t, prompt, "tense")
	assert.Contains(t, prompt, "exactly 4")
	assert.Contains(t, prompt, `"imdbId": string`)
	assert.Equal(t, 3, strings.Count(prompt, "/10\n"))
	assert.Contains(t, prompt, ": 10/10")
}

func TestBuildPrompt_NoHistory(t *testing.T) {
	prompt := BuildPrompt(Request{Title: "Dune", Type: scout.MediaMovie}, 6, 10)

	assert.NotContains(t, prompt, "rated from 1 to 10")
	assert.NotContains(t, prompt, "mood")
	assert.Contains(t, prompt, `"Dune", a movie.`)
}
