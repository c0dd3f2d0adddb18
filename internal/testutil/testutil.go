// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/database"
	"github.com/streamscout/streamscout/internal/scout"
)

// TestDB wraps a test database connection.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Path   string
	Logger zerolog.Logger
}

// NewTestDB creates a migrated database in a temp directory. It is closed
// automatically when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := NewTestLogger(t)

	db, err := database.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &TestDB{
		DB:     db,
		Conn:   db.Conn(),
		Path:   dbPath,
		Logger: logger,
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// Float64Ptr returns a pointer to a float64.
func Float64Ptr(f float64) *float64 {
	return &f
}

// Movie builds a minimal enriched movie item.
func Movie(id int, title string) scout.Item {
	return scout.Item{
		Key:       scout.KeyFor(scout.MediaMovie, id, title),
		Type:      scout.MediaMovie,
		Title:     title,
		NativeID:  id,
		Providers: []string{},
	}
}

// Series builds a minimal enriched TV item.
func Series(id int, title string) scout.Item {
	return scout.Item{
		Key:       scout.KeyFor(scout.MediaTV, id, title),
		Type:      scout.MediaTV,
		Title:     title,
		NativeID:  id,
		Providers: []string{},
	}
}
