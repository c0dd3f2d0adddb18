package startup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func fastRetry() RetryConfig {
	return RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3, Multiplier: 2}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 1.2.3.4:443: connect: connection refused"), true},
		{fmt.Errorf("tmdb: %w", errors.New("lookup api.themoviedb.org: no such host")), true},
		{errors.New("tmdb: unexpected status 401"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsNetworkError(tt.err), "%v", tt.err)
	}
}

func TestWithRetry_RecoversFromNetworkErrors(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "check", fastRetry(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("i/o timeout")
		}
		return nil
	}, zerolog.Nop())

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnOtherErrors(t *testing.T) {
	unauthorized := errors.New("tmdb: unexpected status 401")
	calls := 0
	err := WithRetry(context.Background(), "check", fastRetry(), func(context.Context) error {
		calls++
		return unauthorized
	}, zerolog.Nop())

	assert.ErrorIs(t, err, unauthorized)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "check", fastRetry(), func(context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	}, zerolog.Nop())

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry()
	cfg.InitialDelay = time.Hour

	err := WithRetry(ctx, "check", cfg, func(context.Context) error {
		cancel()
		return errors.New("network is unreachable")
	}, zerolog.Nop())

	assert.ErrorIs(t, err, context.Canceled)
}
