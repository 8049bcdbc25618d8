package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetOrCompute_HitWithinTTL(t *testing.T) {
	c := New()
	currentTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.timeNow = func() time.Time { return currentTime }

	ctx := context.Background()
	calls := 0
	produce := func(ctx context.Context) (any, error) {
		calls++
		return "value", nil
	}

	v, err := c.GetOrCompute(ctx, "k", time.Minute, produce)
	require.NoError(t, err)
	require.Equal(t, "value", v)
	require.Equal(t, 1, calls)

	// 30s later: still fresh, producer must not run again.
	currentTime = currentTime.Add(30 * time.Second)
	v, err = c.GetOrCompute(ctx, "k", time.Minute, produce)
	require.NoError(t, err)
	require.Equal(t, "value", v)
	require.Equal(t, 1, calls)

	// Past expiry: recomputed.
	currentTime = currentTime.Add(31 * time.Second)
	_, err = c.GetOrCompute(ctx, "k", time.Minute, produce)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestGetOrCompute_ZeroTTLIsImmediatelyExpired(t *testing.T) {
	c := New()
	ctx := context.Background()
	calls := 0
	produce := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	for i := 1; i <= 3; i++ {
		v, err := c.GetOrCompute(ctx, "k", 0, produce)
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	require.Equal(t, 3, calls)
}

func TestGetOrCompute_FailureCachesNothing(t *testing.T) {
	c := New()
	ctx := context.Background()

	boom := errors.New("upstream down")
	_, err := c.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, c.Stats().Entries)

	// The key stays computable: the failed attempt did not poison it.
	v, err := c.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}

func TestGetOrCompute_SingleFlight(t *testing.T) {
	c := New()
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	gate := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				<-gate
				return 42, nil
			})
			require.NoError(t, err)
			require.Equal(t, 42, v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls, "concurrent misses must share one producer call")
}

func TestInvalidate(t *testing.T) {
	c := New()
	ctx := context.Background()
	calls := 0
	produce := func(ctx context.Context) (any, error) {
		calls++
		return "v", nil
	}

	_, err := c.GetOrCompute(ctx, "k", time.Hour, produce)
	require.NoError(t, err)
	c.Invalidate("k")
	_, err = c.GetOrCompute(ctx, "k", time.Hour, produce)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestStats(t *testing.T) {
	c := New()
	ctx := context.Background()
	produce := func(ctx context.Context) (any, error) { return 1, nil }

	_, _ = c.GetOrCompute(ctx, "a", time.Hour, produce)
	_, _ = c.GetOrCompute(ctx, "a", time.Hour, produce)
	_, _ = c.GetOrCompute(ctx, "b", time.Hour, produce)

	stats := c.Stats()
	require.Equal(t, 2, stats.Entries)
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(2), stats.Misses)
}

func TestTyped_WrongTypeUnderKey(t *testing.T) {
	c := New()
	ctx := context.Background()

	_, err := Typed(ctx, c, "k", time.Hour, func(ctx context.Context) (string, error) {
		return "s", nil
	})
	require.NoError(t, err)

	_, err = Typed(ctx, c, "k", time.Hour, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	require.Error(t, err)
}
