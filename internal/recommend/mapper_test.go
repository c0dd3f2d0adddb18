package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/scout"
)

type stubCompleter struct {
	text    string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func (s *stubCompleter) IsConfigured() bool { return true }

type stubRatings struct {
	records map[string]scout.RatingRecord
}

func (s *stubRatings) LookupRating(_ context.Context, id string) (*scout.RatingRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, scout.ErrNotFound
	}
	return &rec, nil
}

type stubCatalog struct {
	mu       sync.Mutex
	byTitle  map[string]scout.Hit
	searches []string
}

func (s *stubCatalog) SearchTitles(_ context.Context, q scout.SearchQuery) (*scout.HitPage, error) {
	s.mu.Lock()
	s.searches = append(s.searches, string(q.Type)+":"+q.Query)
	s.mu.Unlock()
	if h, ok := s.byTitle[q.Query]; ok {
		return &scout.HitPage{Page: 1, Results: []scout.Hit{h}}, nil
	}
	return &scout.HitPage{Page: 1}, nil
}

func (s *stubCatalog) Discover(context.Context, scout.DiscoverQuery) (*scout.HitPage, error) {
	return &scout.HitPage{}, nil
}

func (s *stubCatalog) ExternalID(context.Context, scout.MediaType, int) (string, error) {
	return "", nil
}

func (s *stubCatalog) WatchProviders(_ context.Context, _ scout.MediaType, id int) (map[string]scout.RegionOffers, error) {
	if id == 157336 {
		return map[string]scout.RegionOffers{
			"US": {Flatrate: []scout.Offer{{ProviderName: "Paramount Plus"}}},
		}, nil
	}
	return map[string]scout.RegionOffers{}, nil
}

func newTestMapper(text string) (*Mapper, *stubCompleter, *stubCatalog) {
	completer := &stubCompleter{text: text}
	ratings := &stubRatings{records: map[string]scout.RatingRecord{
		"tt0816692": {ExternalID: "tt0816692", Title: "Interstellar", Year: "2014", Kind: "movie", Rating: "8.7"},
		"tt1160419": {ExternalID: "tt1160419", Title: "Dune", Year: "2021", Kind: "movie", Rating: "8.0"},
		"tt0944947": {ExternalID: "tt0944947", Title: "Game of Thrones", Year: "2011–2019", Kind: "series", Rating: "9.2"},
		"tt9999999": {ExternalID: "tt9999999", Title: "Obscure Film", Year: "1999", Kind: "movie", Rating: "N/A"},
	}}
	catalog := &stubCatalog{byTitle: map[string]scout.Hit{
		"Interstellar":    {ID: 157336, Title: "Interstellar", ReleaseDate: "2014-11-05", PosterPath: "/i.jpg"},
		"Dune":            {ID: 438631, Title: "Dune", ReleaseDate: "2021-09-15"},
		"Game of Thrones": {ID: 1399, Name: "Game of Thrones", FirstAirDate: "2011-04-17"},
	}}
	pipeline := scout.NewPipeline(catalog, ratings, scout.PipelineConfig{ImageBaseURL: "https://image.tmdb.org/t/p"}, zerolog.Nop())
	return NewMapper(completer, catalog, ratings, pipeline, Config{}, zerolog.Nop()), completer, catalog
}

var duneRequest = Request{Key: "movie:438631", Title: "Dune", Year: "2021", Type: scout.MediaMovie, Mood: "epic"}

const suggestions = `[
  {"title":"Interstellar","year":"2014","type":"movie","imdbId":"tt0816692","reason":"Vast sci-fi"},
  {"title":"Game of Thrones","year":2011,"type":"tv","imdbId":"tt0944947","reason":"Houses at war"}
]`

func TestMapper_Recommend(t *testing.T) {
	m, completer, _ := newTestMapper(suggestions)

	items, err := m.Recommend(context.Background(), duneRequest)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, scout.Item{
		Key:        "movie:157336",
		Type:       scout.MediaMovie,
		Title:      "Interstellar",
		Year:       "2014",
		Poster:     "https://image.tmdb.org/t/p/w185/i.jpg",
		NativeID:   157336,
		ExternalID: "tt0816692",
		Rating:     "8.7",
		Providers:  []string{"Paramount Plus"},
		Reason:     "Vast sci-fi",
	}, items[0])

	assert.Equal(t, "tv:1399", items[1].Key)
	assert.Equal(t, scout.MediaTV, items[1].Type)
	assert.Equal(t, "2011", items[1].Year)
	assert.Equal(t, []string{}, items[1].Providers)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], `"Dune" (2021)`)
	assert.Contains(t, completer.prompts[0], "epic")
	assert.Contains(t, completer.prompts[0], "exactly 6")
}

func TestMapper_FencedCompletionMatchesPlain(t *testing.T) {
	plain, _, _ := newTestMapper(suggestions)
	fenced, _, _ := newTestMapper("```json\n" + suggestions + "\n```")

	want, err := plain.Recommend(context.Background(), duneRequest)
	require.NoError(t, err)
	got, err := fenced.Recommend(context.Background(), duneRequest)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestMapper_DropsUnresolvableCandidates(t *testing.T) {
	text := `[
	  {"title":"No Id","year":"2020","type":"movie","reason":"x"},
	  {"title":"Interstellar","year":"2014","type":"movie","imdbId":"tt0816692","reason":"y"},
	  {"title":"Unknown","year":"2020","type":"movie","imdbId":"tt0000001","reason":"z"},
	  {"title":"Obscure Film","year":"1999","type":"movie","imdbId":"tt9999999","reason":"w"}
	]`
	m, _, catalog := newTestMapper(text)

	items, err := m.Recommend(context.Background(), duneRequest)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "movie:157336", items[0].Key)

	// Only candidates that resolved a rating reach the catalog.
	assert.Equal(t, []string{"movie:Interstellar", "movie:Obscure Film"}, catalog.searches)
}

func TestMapper_DropsAnchor(t *testing.T) {
	text := `[{"title":"Dune","year":"2021","type":"movie","imdbId":"tt1160419","reason":"same"},
	          {"title":"Interstellar","year":"2014","type":"movie","imdbId":"tt0816692","reason":"y"}]`
	m, _, _ := newTestMapper(text)

	items, err := m.Recommend(context.Background(), duneRequest)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "movie:157336", items[0].Key)
}

func TestMapper_AnchorKeyFromNativeID(t *testing.T) {
	text := `[{"title":"Dune","imdbId":"tt1160419"}]`
	m, _, _ := newTestMapper(text)

	items, err := m.Recommend(context.Background(), Request{Title: "Dune", Type: scout.MediaMovie, NativeID: 438631})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMapper_MalformedCompletion(t *testing.T) {
	for _, text := range []string{"Sure! Here are some titles.", `{"title":"Interstellar"}`, "[{broken", ""} {
		m, _, _ := newTestMapper(text)
		items, err := m.Recommend(context.Background(), duneRequest)
		require.NoError(t, err, text)
		assert.NotNil(t, items)
		assert.Empty(t, items, text)
	}
}

func TestMapper_CompletionError(t *testing.T) {
	m, completer, _ := newTestMapper("")
	completer.err = errors.New("upstream 500")

	_, err := m.Recommend(context.Background(), duneRequest)
	assert.Error(t, err)
}

func TestMapper_NotConfigured(t *testing.T) {
	m := NewMapper(NewOpenAICompleter(config.OpenAIConfig{}, zerolog.Nop()), &stubCatalog{}, &stubRatings{}, nil, Config{}, zerolog.Nop())

	assert.False(t, m.IsConfigured())
	_, err := m.Recommend(context.Background(), duneRequest)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAICompleter_Complete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"[]"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":1,"total_tokens":11}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, zerolog.Nop())
	require.True(t, c.IsConfigured())

	text, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "[]", text)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, DefaultModel, got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.001)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestOpenAICompleter_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, zerolog.Nop())
	_, err := c.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "chat completion"))
}

func TestOpenAICompleter_Test(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/models/"+DefaultModel {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL}, zerolog.Nop())
	assert.NoError(t, c.Test(context.Background()))

	c = NewOpenAICompleter(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-missing"}, zerolog.Nop())
	assert.Error(t, c.Test(context.Background()))

	c = NewOpenAICompleter(config.OpenAIConfig{BaseURL: srv.URL}, zerolog.Nop())
	assert.ErrorIs(t, c.Test(context.Background()), ErrNotConfigured)
}
