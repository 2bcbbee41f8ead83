package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInterval(t *testing.T) {
	t.Run("enforces the minimum interval", func(t *testing.T) {
		limiter := NewInterval(50 * time.Millisecond)
		ctx := context.Background()

		start := time.Now()
		for range 3 {
			require.NoError(t, limiter.Wait(ctx))
		}

		// first call passes, the next two wait one interval each
		require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("aborts on cancelled context", func(t *testing.T) {
		limiter := NewInterval(time.Hour)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		require.Error(t, limiter.Wait(ctx))
	})

	t.Run("non-positive interval disables limiting", func(t *testing.T) {
		require.Equal(t, None(), NewInterval(0))
	})
}

func TestNone(t *testing.T) {
	limiter := None()

	start := time.Now()
	for range 100 {
		require.NoError(t, limiter.Wait(context.Background()))
	}

	require.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
}
