package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/streamscout/streamscout/internal/metadata"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Test(ctx context.Context) error { return f(ctx) }

func TestUpstreamHealthTask(t *testing.T) {
	boom := errors.New("tmdb: 401 unauthorized")

	tests := []struct {
		name    string
		result  error
		wantErr error
	}{
		{"healthy", nil, nil},
		{"nothing configured", metadata.ErrNoProvidersConfigured, nil},
		{"upstream failing", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewUpstreamHealthTask(checkerFunc(func(context.Context) error { return tt.result }), zerolog.Nop())
			err := task.Run(context.Background())
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
