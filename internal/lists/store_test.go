package lists

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/streamscout/streamscout/internal/scout"
	"github.com/streamscout/streamscout/internal/testutil"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recordingNotifier) Notify(_ context.Context, c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

// failingKV fails every Put after the first allowedPuts succeed.
type failingKV struct {
	*MemoryKV
	allowedPuts int
	puts        int
}

var errCrash = errors.New("simulated crash")

func (f *failingKV) Put(ctx context.Context, name string, items []scout.Item) error {
	if f.puts >= f.allowedPuts {
		return errCrash
	}
	f.puts++
	return f.MemoryKV.Put(ctx, name, items)
}

func newTestStore() (*Store, *recordingNotifier) {
	store := NewStore(NewMemoryKV(), zerolog.Nop())
	n := &recordingNotifier{}
	store.AddNotifier(n)
	return store, n
}

func keys(items []scout.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

func TestStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, n := newTestStore()
	dune := testutil.Movie(438631, "Dune")

	added, err := store.Add(ctx, Watchlist, dune)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, Watchlist, dune)
	require.NoError(t, err)
	assert.False(t, added)

	items, err := store.Items(ctx, Watchlist)
	require.NoError(t, err)
	assert.Equal(t, []string{"movie:438631"}, keys(items))
	assert.Len(t, n.changes, 1, "no-op adds do not notify")
}

func TestStore_AddKeepsExistingKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	legacy := scout.Item{Key: "movie:Dune", Type: scout.MediaMovie, Title: "Dune", NativeID: 438631}
	_, err := store.Add(ctx, Watchlist, legacy)
	require.NoError(t, err)

	items, err := store.Items(ctx, Watchlist)
	require.NoError(t, err)
	assert.Equal(t, "movie:Dune", items[0].Key)
}

func TestStore_UnknownListAndEmptyKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	_, err := store.Add(ctx, "favorites", testutil.Movie(1, "A"))
	assert.ErrorIs(t, err, ErrUnknownList)

	_, err = store.Items(ctx, "favorites")
	assert.ErrorIs(t, err, ErrUnknownList)

	_, err = store.Remove(ctx, Watchlist, " ")
	assert.ErrorIs(t, err, ErrEmptyKey)

	err = store.Move(ctx, Watchlist, "trash", "movie:1")
	assert.ErrorIs(t, err, ErrUnknownList)
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	_, err := store.Add(ctx, Watchlist, testutil.Movie(1, "A"))
	require.NoError(t, err)
	_, err = store.Add(ctx, Watchlist, testutil.Movie(2, "B"))
	require.NoError(t, err)

	removed, err := store.Remove(ctx, Watchlist, "movie:1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Remove(ctx, Watchlist, "movie:1")
	require.NoError(t, err)
	assert.False(t, removed)

	items, err := store.Items(ctx, Watchlist)
	require.NoError(t, err)
	assert.Equal(t, []string{"movie:2"}, keys(items))
}

func TestStore_Move(t *testing.T) {
	ctx := context.Background()
	store, n := newTestStore()
	item := testutil.Movie(1, "A")
	item.Score = 7
	_, err := store.Add(ctx, Watchlist, item)
	require.NoError(t, err)

	require.NoError(t, store.Move(ctx, Watchlist, Watched, "movie:1"))

	m, err := store.Membership(ctx, "movie:1")
	require.NoError(t, err)
	assert.Equal(t, Membership{Watched: true}, m)

	watched, err := store.Items(ctx, Watched)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, scout.Score(7), watched[0].Score)

	last := n.changes[len(n.changes)-1]
	assert.Equal(t, Change{List: Watched, Key: "movie:1", Action: ActionMoved, From: Watchlist}, last)

	// Moving again is a no-op because the key is already at the destination.
	require.NoError(t, store.Move(ctx, Watchlist, Watched, "movie:1"))

	err = store.Move(ctx, Watchlist, Watched, "movie:404")
	assert.ErrorIs(t, err, ErrNotInList)
}

func TestStore_MoveCrashFavorsDuplication(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: NewMemoryKV(), allowedPuts: 2}
	store := NewStore(kv, zerolog.Nop())

	_, err := store.Add(ctx, Watchlist, testutil.Movie(1, "A")) // put 1
	require.NoError(t, err)

	// Put 2 is the add to watched; the remove from watchlist fails.
	err = store.Move(ctx, Watchlist, Watched, "movie:1")
	require.ErrorIs(t, err, errCrash)

	m, err := store.Membership(ctx, "movie:1")
	require.NoError(t, err)
	assert.True(t, m.Watchlist, "key may remain in the source list")
	assert.True(t, m.Watched, "key is never lost")
}

func TestStore_MarkWatched(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	stored := testutil.Series(1396, "Breaking Bad")
	stored.Score = 9
	_, err := store.Add(ctx, Watchlist, stored)
	require.NoError(t, err)

	// A fresh copy from a search result carries no score.
	fresh := testutil.Series(1396, "Breaking Bad")
	fresh.Rating = "9.5"
	require.NoError(t, store.MarkWatched(ctx, fresh))

	m, err := store.Membership(ctx, stored.Key)
	require.NoError(t, err)
	assert.Equal(t, Membership{Watched: true}, m)

	watched, err := store.Items(ctx, Watched)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, scout.Score(9), watched[0].Score)

	// Items never on the watchlist are added directly.
	require.NoError(t, store.MarkWatched(ctx, testutil.Movie(2, "B")))
	watched, err = store.Items(ctx, Watched)
	require.NoError(t, err)
	assert.Equal(t, []string{"tv:1396", "movie:2"}, keys(watched))
}

func TestStore_AddKeepsListsExclusive(t *testing.T) {
	ctx := context.Background()
	store, n := newTestStore()

	queued := testutil.Movie(1, "A")
	queued.Score = 6
	added, err := store.Add(ctx, Watchlist, queued)
	require.NoError(t, err)
	require.True(t, added)

	added, err = store.Add(ctx, Watched, testutil.Movie(1, "A"))
	require.NoError(t, err)
	assert.True(t, added)

	m, err := store.Membership(ctx, "movie:1")
	require.NoError(t, err)
	assert.Equal(t, Membership{Watched: true}, m)
	assert.Equal(t, Change{List: Watched, Key: "movie:1", Action: ActionWatched, From: Watchlist}, n.changes[len(n.changes)-1])

	watched, err := store.Items(ctx, Watched)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, scout.Score(6), watched[0].Score, "stored watchlist record is kept")

	_, err = store.Add(ctx, Watchlist, testutil.Movie(1, "A"))
	require.ErrorIs(t, err, ErrAlreadyWatched)

	m, err = store.Membership(ctx, "movie:1")
	require.NoError(t, err)
	assert.Equal(t, Membership{Watched: true}, m)

	// Re-adding to watched is a no-op; moving back is explicit.
	n.changes = nil
	added, err = store.Add(ctx, Watched, testutil.Movie(1, "A"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, n.changes)

	require.NoError(t, store.Move(ctx, Watched, Watchlist, "movie:1"))
	m, err = store.Membership(ctx, "movie:1")
	require.NoError(t, err)
	assert.Equal(t, Membership{Watchlist: true}, m)
}

// seedBoth writes key into both lists, as a crashed move can leave it.
func seedBoth(t *testing.T, kv KV, item scout.Item) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, Watchlist, []scout.Item{item}))
	require.NoError(t, kv.Put(ctx, Watched, []scout.Item{item}))
}

func TestStore_SetScore(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedBoth(t, kv, testutil.Movie(1, "A"))
	store := NewStore(kv, zerolog.Nop())
	n := &recordingNotifier{}
	store.AddNotifier(n)

	written, err := store.SetScore(ctx, "movie:1", 8)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Len(t, n.changes, 2)

	written, err = store.SetScore(ctx, "movie:1", 8)
	require.NoError(t, err)
	assert.Zero(t, written, "unchanged scores are not rewritten")

	written, err = store.SetScore(ctx, "movie:404", 5)
	require.NoError(t, err)
	assert.Zero(t, written)

	_, err = store.SetScore(ctx, "movie:1", 11)
	assert.ErrorIs(t, err, scout.ErrInvalidScore)

	written, err = store.SetScore(ctx, "movie:1", scout.ScoreNA)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	items, err := store.Items(ctx, Watched)
	require.NoError(t, err)
	assert.Equal(t, scout.ScoreNA, items[0].Score)
}

func TestStore_RewritePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	store, n := newTestStore()

	item := testutil.Movie(1, "A")
	item.Score = 6
	_, err := store.Add(ctx, Watched, item)
	require.NoError(t, err)
	n.changes = nil

	changed, err := store.Rewrite(ctx, Watched, func(it scout.Item) scout.Item {
		it.Key = "movie:forked"
		it.Title = "Renamed"
		it.Score = 1
		it.Rating = "7.1"
		it.Providers = []string{"Hulu"}
		return it
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	items, err := store.Items(ctx, Watched)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "movie:1", items[0].Key)
	assert.Equal(t, "A", items[0].Title)
	assert.Equal(t, scout.Score(6), items[0].Score)
	assert.Equal(t, "7.1", items[0].Rating)
	assert.Equal(t, []string{"Hulu"}, items[0].Providers)
	require.Len(t, n.changes, 1)
	assert.Equal(t, ActionRefresh, n.changes[0].Action)

	changed, err = store.Rewrite(ctx, Watched, func(it scout.Item) scout.Item { return it })
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestStore_Export(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	item := testutil.Movie(603, "The Matrix")
	item.Score = scout.ScoreNA
	_, err := store.Add(ctx, Watchlist, item)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.Export(ctx, &buf, FormatJSON))
	assert.Contains(t, buf.String(), `"score": "N/A"`)
	assert.Contains(t, buf.String(), `"watched": []`)

	buf.Reset()
	require.NoError(t, store.Export(ctx, &buf, FormatYAML))

	var doc map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc["watchlist"], 1)
	assert.Equal(t, "movie:603", doc["watchlist"][0]["key"])
	assert.Equal(t, "N/A", doc["watchlist"][0]["score"])

	err = store.Export(ctx, &buf, "csv")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "csv"))
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = store.Add(ctx, Watchlist, testutil.Movie(id%5+1, "T"))
		}(i)
	}
	wg.Wait()

	items, err := store.Items(ctx, Watchlist)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestStore_Find(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seen := testutil.Movie(1, "A")
	seen.Score = 7
	require.NoError(t, kv.Put(ctx, Watchlist, []scout.Item{testutil.Movie(1, "A")}))
	require.NoError(t, kv.Put(ctx, Watched, []scout.Item{seen}))
	store := NewStore(kv, zerolog.Nop())

	got, ok, err := store.Find(ctx, "movie:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scout.Score(7), got.Score, "watched wins")

	_, ok, err = store.Find(ctx, "movie:2")
	require.NoError(t, err)
	assert.False(t, ok)
}
