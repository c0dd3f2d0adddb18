package tasks

import (
	"context"
	"encoding/json"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamscout/streamscout/internal/lists"
	"github.com/streamscout/streamscout/internal/metadata"
	"github.com/streamscout/streamscout/internal/scout"
	"github.com/streamscout/streamscout/internal/testutil"
)

type refreshCatalog struct{}

func (refreshCatalog) SearchTitles(context.Context, scout.SearchQuery) (*scout.HitPage, error) {
	return &scout.HitPage{}, nil
}

func (refreshCatalog) Discover(context.Context, scout.DiscoverQuery) (*scout.HitPage, error) {
	return &scout.HitPage{}, nil
}

func (refreshCatalog) ExternalID(_ context.Context, _ scout.MediaType, id int) (string, error) {
	if id == 438631 {
		return "tt1160419", nil
	}
	return "", nil
}

func (refreshCatalog) WatchProviders(_ context.Context, _ scout.MediaType, id int) (map[string]scout.RegionOffers, error) {
	return map[string]scout.RegionOffers{
		"US": {Flatrate: []scout.Offer{{ProviderName: "Netflix"}}},
	}, nil
}

// countingCatalog is a TMDB client that counts provider lookups.
type countingCatalog struct {
	refreshCatalog
	providerCalls atomic.Int32
}

func (c *countingCatalog) WatchProviders(ctx context.Context, t scout.MediaType, id int) (map[string]scout.RegionOffers, error) {
	c.providerCalls.Add(1)
	return c.refreshCatalog.WatchProviders(ctx, t, id)
}

func (*countingCatalog) Name() string               { return "tmdb" }
func (*countingCatalog) IsConfigured() bool         { return true }
func (*countingCatalog) Test(context.Context) error { return nil }
func (*countingCatalog) ImageBaseURL() string       { return "" }
func (*countingCatalog) Get(context.Context, string, url.Values) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
func (*countingCatalog) Genres(context.Context, scout.MediaType) ([]scout.Genre, error) {
	return []scout.Genre{}, nil
}

type refreshRatings struct{}

func (refreshRatings) LookupRating(_ context.Context, id string) (*scout.RatingRecord, error) {
	return &scout.RatingRecord{ExternalID: id, Title: "Renamed Upstream", Rating: "8.1"}, nil
}

func TestListRefreshTask(t *testing.T) {
	ctx := context.Background()
	store := lists.NewStore(lists.NewMemoryKV(), zerolog.Nop())

	dune := testutil.Movie(438631, "Dune")
	dune.Score = 9
	dune.Providers = []string{"Max"}
	_, err := store.Add(ctx, lists.Watchlist, dune)
	require.NoError(t, err)

	titleOnly := scout.Item{Key: "movie:Obscure", Type: scout.MediaMovie, Title: "Obscure", Providers: []string{}}
	_, err = store.Add(ctx, lists.Watched, titleOnly)
	require.NoError(t, err)

	pipeline := scout.NewPipeline(refreshCatalog{}, refreshRatings{}, scout.PipelineConfig{Region: "US"}, zerolog.Nop())
	invalidated := &recordingInvalidator{}
	task := NewListRefreshTask(store, pipeline, invalidated, zerolog.Nop())
	require.NoError(t, task.Run(ctx))

	items, err := store.Items(ctx, lists.Watchlist)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "movie:438631", items[0].Key)
	assert.Equal(t, "Dune", items[0].Title)
	assert.Equal(t, scout.Score(9), items[0].Score)
	assert.Equal(t, "tt1160419", items[0].ExternalID)
	assert.Equal(t, "8.1", items[0].Rating)
	assert.Equal(t, []string{"Netflix"}, items[0].Providers)

	watched, err := store.Items(ctx, lists.Watched)
	require.NoError(t, err)
	assert.Equal(t, []scout.Item{titleOnly}, watched)

	// Only titles with a TMDB id have cached lookups.
	assert.Equal(t, []string{"movie:438631"}, invalidated.keys)
}

type recordingInvalidator struct {
	keys []string
}

func (r *recordingInvalidator) Invalidate(t scout.MediaType, id int) {
	r.keys = append(r.keys, scout.KeyFor(t, id, ""))
}

func TestListRefreshTask_RefetchesCachedOffers(t *testing.T) {
	ctx := context.Background()
	catalog := &countingCatalog{}
	cache := metadata.NewCache(metadata.CacheConfig{TTL: time.Hour, MaxItems: 10})
	caching := metadata.NewCachingCatalog(catalog, cache, zerolog.Nop())

	store := lists.NewStore(lists.NewMemoryKV(), zerolog.Nop())
	_, err := store.Add(ctx, lists.Watchlist, testutil.Movie(438631, "Dune"))
	require.NoError(t, err)

	pipeline := scout.NewPipeline(caching, nil, scout.PipelineConfig{Region: "US"}, zerolog.Nop())
	_, err = caching.WatchProviders(ctx, scout.MediaMovie, 438631)
	require.NoError(t, err)
	require.EqualValues(t, 1, catalog.providerCalls.Load())

	require.NoError(t, NewListRefreshTask(store, pipeline, caching, zerolog.Nop()).Run(ctx))
	assert.EqualValues(t, 2, catalog.providerCalls.Load(), "refresh bypasses the cached offers")
}
