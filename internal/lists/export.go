package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/streamscout/streamscout/internal/scout"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Snapshot holds every list at one point in time.
type Snapshot struct {
	Watchlist []scout.Item `json:"watchlist" yaml:"watchlist"`
	Watched   []scout.Item `json:"watched" yaml:"watched"`
}

// Snapshot reads both lists.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	pending, err := s.Items(ctx, Watchlist)
	if err != nil {
		return nil, err
	}
	seen, err := s.Items(ctx, Watched)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Watchlist: pending, Watched: seen}, nil
}

// Export writes a snapshot of every list to w.
func (s *Store) Export(ctx context.Context, w io.Writer, format string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
