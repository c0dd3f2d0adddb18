// Package lists keeps the user's named title lists ("watchlist" and
// "watched") on top of an injected key-value backend.
package lists

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/scout"
)

const (
	Watchlist = "watchlist"
	Watched   = "watched"
)

// Names lists every accepted list name.
var Names = []string{Watchlist, Watched}

var (
	ErrUnknownList    = errors.New("unknown list")
	ErrEmptyKey       = errors.New("item key is empty")
	ErrNotInList      = errors.New("item is not in list")
	// ErrAlreadyWatched is returned when a watched title is added to the
	// watchlist. Move it from watched to watchlist instead.
	ErrAlreadyWatched = errors.New("item is already watched")
)

// KV is the persistence backend. Get of a missing name returns an empty list.
type KV interface {
	Get(ctx context.Context, name string) ([]scout.Item, error)
	Put(ctx context.Context, name string, items []scout.Item) error
}

// Action names a list mutation.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionMoved   Action = "moved"
	ActionWatched Action = "watched"
	ActionScored  Action = "scored"
	ActionRefresh Action = "refreshed"
)

// Change describes one successful mutation.
type Change struct {
	List   string `json:"list"`
	Key    string `json:"key,omitempty"`
	Action Action `json:"action"`
	From   string `json:"from,omitempty"`
}

// Notifier is told about every successful mutation.
type Notifier interface {
	Notify(ctx context.Context, change Change)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, change Change)

func (f NotifierFunc) Notify(ctx context.Context, change Change) { f(ctx, change) }

// Membership reports which lists hold a key.
type Membership struct {
	Watchlist bool `json:"watchlist"`
	Watched   bool `json:"watched"`
}

// Lists returns the names of the lists that hold the key.
func (m Membership) Lists() []string {
	var names []string
	if m.Watchlist {
		names = append(names, Watchlist)
	}
	if m.Watched {
		names = append(names, Watched)
	}
	return names
}

// Store implements the list operations. Mutations are read-modify-write
// under an in-process mutex; writers in other processes are not coordinated.
type Store struct {
	kv        KV
	mu        sync.Mutex
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewStore creates a store over kv.
func NewStore(kv KV, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger.With().Str("component", "lists").Logger(),
	}
}

// AddNotifier registers a change listener.
func (s *Store) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// ValidateName rejects names other than watchlist and watched.
func ValidateName(name string) error {
	if !slices.Contains(Names, name) {
		return fmt.Errorf("%w: %q", ErrUnknownList, name)
	}
	return nil
}

// Items returns the items of one list in stored order.
func (s *Store) Items(ctx context.Context, name string) ([]scout.Item, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	items, err := s.kv.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if items == nil {
		items = []scout.Item{}
	}
	return items, nil
}

// Add appends item to the list. It is a no-op when the key is already
// present; added reports whether any list changed. Adding to watched takes
// the key off the watchlist like MarkWatched does. Adding a watched key to
// the watchlist fails with ErrAlreadyWatched, so a key is never held by
// both lists.
func (s *Store) Add(ctx context.Context, name string, item scout.Item) (added bool, err error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	item = item.Normalized()
	if strings.TrimSpace(item.Key) == "" {
		return false, ErrEmptyKey
	}

	change := Change{List: name, Key: item.Key, Action: ActionAdded}

	s.mu.Lock()
	if name == Watched {
		var moved bool
		added, moved, err = s.markWatched(ctx, item)
		if moved {
			change.Action = ActionWatched
			change.From = Watchlist
		}
	} else {
		added, err = s.addToWatchlist(ctx, item)
	}
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	if added {
		s.notify(ctx, change)
	}
	return added, nil
}

// addToWatchlist must be called with the lock held.
func (s *Store) addToWatchlist(ctx context.Context, item scout.Item) (bool, error) {
	watched, err := s.kv.Get(ctx, Watched)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", Watched, err)
	}
	if indexOf(watched, item.Key) >= 0 {
		return false, fmt.Errorf("%w: %s", ErrAlreadyWatched, item.Key)
	}
	return s.add(ctx, Watchlist, item)
}

// Remove deletes key from the list; removed reports whether it was present.
func (s *Store) Remove(ctx context.Context, name, key string) (removed bool, err error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	if strings.TrimSpace(key) == "" {
		return false, ErrEmptyKey
	}

	s.mu.Lock()
	removed, err = s.remove(ctx, name, key)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	if removed {
		s.notify(ctx, Change{List: name, Key: key, Action: ActionRemoved})
	}
	return removed, nil
}

// Move transfers key from one list to another. The add is persisted before
// the remove, so an interruption leaves the item in both lists, never in
// neither.
func (s *Store) Move(ctx context.Context, from, to, key string) error {
	if err := ValidateName(from); err != nil {
		return err
	}
	if err := ValidateName(to); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if from == to {
		return nil
	}

	s.mu.Lock()
	err := s.move(ctx, from, to, key)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(ctx, Change{List: to, Key: key, Action: ActionMoved, From: from})
	return nil
}

func (s *Store) move(ctx context.Context, from, to, key string) error {
	source, err := s.kv.Get(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", from, err)
	}

	idx := indexOf(source, key)
	if idx < 0 {
		dest, err := s.kv.Get(ctx, to)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", to, err)
		}
		if indexOf(dest, key) >= 0 {
			return nil
		}
		return fmt.Errorf("%w: %s not in %s", ErrNotInList, key, from)
	}

	if _, err := s.add(ctx, to, source[idx]); err != nil {
		return err
	}
	if _, err := s.remove(ctx, from, key); err != nil {
		return err
	}
	return nil
}

// MarkWatched puts item on the watched list and takes it off the watchlist.
// The stored watchlist record wins over item so its key and score survive;
// an item that was never on the watchlist is added directly.
func (s *Store) MarkWatched(ctx context.Context, item scout.Item) error {
	item = item.Normalized()
	if strings.TrimSpace(item.Key) == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	_, moved, err := s.markWatched(ctx, item)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	change := Change{List: Watched, Key: item.Key, Action: ActionWatched}
	if moved {
		change.From = Watchlist
	}
	s.notify(ctx, change)
	return nil
}

// markWatched must be called with the lock held. changed reports whether
// either list was written; moved whether the key left the watchlist.
func (s *Store) markWatched(ctx context.Context, item scout.Item) (changed, moved bool, err error) {
	pending, err := s.kv.Get(ctx, Watchlist)
	if err != nil {
		return false, false, fmt.Errorf("failed to read %s: %w", Watchlist, err)
	}
	if idx := indexOf(pending, item.Key); idx >= 0 {
		stored := pending[idx]
		if !stored.Score.IsSet() && stored.Score != scout.ScoreNA {
			stored.Score = item.Score
		}
		item = stored
	}

	added, err := s.add(ctx, Watched, item)
	if err != nil {
		return false, false, err
	}
	moved, err = s.remove(ctx, Watchlist, item.Key)
	if err != nil {
		return added, false, err
	}
	return added || moved, moved, nil
}

// SetScore updates the score of key in every list that holds it and returns
// the number of lists written. A key held nowhere is a no-op.
func (s *Store) SetScore(ctx context.Context, key string, score scout.Score) (int, error) {
	if strings.TrimSpace(key) == "" {
		return 0, ErrEmptyKey
	}
	if err := score.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	var touched []string
	for _, name := range Names {
		items, err := s.kv.Get(ctx, name)
		if err != nil {
			s.mu.Unlock()
			return len(touched), fmt.Errorf("failed to read %s: %w", name, err)
		}
		idx := indexOf(items, key)
		if idx < 0 || items[idx].Score == score {
			continue
		}
		items[idx].Score = score
		if err := s.kv.Put(ctx, name, items); err != nil {
			s.mu.Unlock()
			return len(touched), fmt.Errorf("failed to write %s: %w", name, err)
		}
		touched = append(touched, name)
	}
	s.mu.Unlock()

	for _, name := range touched {
		s.notify(ctx, Change{List: name, Key: key, Action: ActionScored})
	}
	return len(touched), nil
}

// Membership reports which lists currently contain key.
func (s *Store) Membership(ctx context.Context, key string) (Membership, error) {
	var m Membership
	for _, name := range Names {
		items, err := s.kv.Get(ctx, name)
		if err != nil {
			return m, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if indexOf(items, key) < 0 {
			continue
		}
		switch name {
		case Watchlist:
			m.Watchlist = true
		case Watched:
			m.Watched = true
		}
	}
	return m, nil
}

// Find returns the stored record for key, searching the watched list first.
func (s *Store) Find(ctx context.Context, key string) (scout.Item, bool, error) {
	for _, name := range []string{Watched, Watchlist} {
		items, err := s.kv.Get(ctx, name)
		if err != nil {
			return scout.Item{}, false, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if i := indexOf(items, key); i >= 0 {
			return items[i], true, nil
		}
	}
	return scout.Item{}, false, nil
}

// Rewrite replaces every item of a list with fn(item). fn runs without the
// lock held; its results are merged into the list as stored at write time.
// Identity fields and the user's score are always kept from the stored
// record, so enrichment can never fork a stored key.
func (s *Store) Rewrite(ctx context.Context, name string, fn func(scout.Item) scout.Item) (int, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}

	snapshot, err := s.kv.Get(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", name, err)
	}

	updates := make(map[string]scout.Item, len(snapshot))
	for _, it := range snapshot {
		updates[it.Key] = fn(it)
	}

	s.mu.Lock()
	items, err := s.kv.Get(ctx, name)
	if err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("failed to read %s: %w", name, err)
	}

	changed := 0
	for i, stored := range items {
		updated, ok := updates[stored.Key]
		if !ok {
			continue
		}
		updated.Key = stored.Key
		updated.Type = stored.Type
		updated.Title = stored.Title
		updated.NativeID = stored.NativeID
		updated.Score = stored.Score
		if updated.Providers == nil {
			updated.Providers = []string{}
		}
		if !sameItem(stored, updated) {
			changed++
			items[i] = updated
		}
	}

	if changed > 0 {
		if err := s.kv.Put(ctx, name, items); err != nil {
			s.mu.Unlock()
			return 0, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	s.mu.Unlock()

	if changed > 0 {
		s.notify(ctx, Change{List: name, Action: ActionRefresh})
	}
	return changed, nil
}

// add must be called with the lock held.
func (s *Store) add(ctx context.Context, name string, item scout.Item) (bool, error) {
	items, err := s.kv.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if indexOf(items, item.Key) >= 0 {
		return false, nil
	}

	items = append(items, item)
	if err := s.kv.Put(ctx, name, items); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return true, nil
}

// remove must be called with the lock held.
func (s *Store) remove(ctx context.Context, name, key string) (bool, error) {
	items, err := s.kv.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}

	kept := slices.DeleteFunc(slices.Clone(items), func(it scout.Item) bool { return it.Key == key })
	if len(kept) == len(items) {
		return false, nil
	}
	if err := s.kv.Put(ctx, name, kept); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) notify(ctx context.Context, change Change) {
	s.logger.Debug().
		Str("list", change.List).
		Str("key", change.Key).
		Str("action", string(change.Action)).
		Msg("List changed")

	s.mu.Lock()
	notifiers := slices.Clone(s.notifiers)
	s.mu.Unlock()

	for _, n := range notifiers {
		n.Notify(ctx, change)
	}
}

func indexOf(items []scout.Item, key string) int {
	return slices.IndexFunc(items, func(it scout.Item) bool { return it.Key == key })
}

func sameItem(a, b scout.Item) bool {
	return a.ExternalID == b.ExternalID &&
		a.Rating == b.Rating &&
		a.Year == b.Year &&
		a.Poster == b.Poster &&
		slices.Equal(a.Providers, b.Providers)
}
