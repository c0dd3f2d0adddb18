package lists

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/streamscout/streamscout/internal/database/sqlc"
	"github.com/streamscout/streamscout/internal/scout"
)

// MemoryKV keeps lists in process memory.
type MemoryKV struct {
	mu    sync.RWMutex
	lists map[string][]scout.Item
}

// NewMemoryKV creates an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{lists: make(map[string][]scout.Item)}
}

// Get returns a copy of the named list.
func (m *MemoryKV) Get(_ context.Context, name string) ([]scout.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneItems(m.lists[name]), nil
}

// Put replaces the named list with a copy of items.
func (m *MemoryKV) Put(_ context.Context, name string, items []scout.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[name] = cloneItems(items)
	return nil
}

func cloneItems(items []scout.Item) []scout.Item {
	out := make([]scout.Item, len(items))
	for i, it := range items {
		it.Providers = slices.Clone(it.Providers)
		out[i] = it
	}
	return out
}

// SQLiteKV stores each list as one JSON document in the lists table.
type SQLiteKV struct {
	queries *sqlc.Queries
}

// NewSQLiteKV creates a backend over a migrated database.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{queries: sqlc.New(db)}
}

// Get reads the named list; a missing row is an empty list.
func (kv *SQLiteKV) Get(ctx context.Context, name string) ([]scout.Item, error) {
	raw, err := kv.queries.GetListItems(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return []scout.Item{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []scout.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("corrupt list %s: %w", name, err)
	}
	if items == nil {
		items = []scout.Item{}
	}
	return items, nil
}

// Put upserts the named list.
func (kv *SQLiteKV) Put(ctx context.Context, name string, items []scout.Item) error {
	if items == nil {
		items = []scout.Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}

	return kv.queries.UpsertList(ctx, sqlc.UpsertListParams{
		Name:  name,
		Items: string(raw),
	})
}
