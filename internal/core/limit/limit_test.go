package limit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConcurrencyBoundsInFlight(t *testing.T) {
	gate := NewConcurrency(2)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := gate.Run(context.Background(), func() error {
				current := atomic.AddInt64(&inFlight, 1)
				for {
					observed := atomic.LoadInt64(&peak)
					if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestConcurrencyAcquireHonorsContext(t *testing.T) {
	gate := NewConcurrency(1)
	require.NoError(t, gate.Acquire(context.Background()))
	defer gate.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gate.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrencyMinimumOfOne(t *testing.T) {
	gate := NewConcurrency(0)
	require.NoError(t, gate.Run(context.Background(), func() error { return nil }))
}

func TestSlidingWindowAdmitsUnderBudget(t *testing.T) {
	window := NewSlidingWindow(3, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, window.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSlidingWindowDisabled(t *testing.T) {
	window := NewSlidingWindow(0, time.Second)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, window.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSlidingWindowPrunesAgedAdmissions(t *testing.T) {
	now := time.Now()
	window := NewSlidingWindow(1, time.Second)
	window.Clock = func() time.Time { return now }

	wait, ok := window.tryAdmit()
	require.True(t, ok)
	require.Zero(t, wait)

	wait, ok = window.tryAdmit()
	require.False(t, ok)
	require.Equal(t, time.Second, wait)

	now = now.Add(time.Second + time.Millisecond)
	_, ok = window.tryAdmit()
	require.True(t, ok)
}

func TestSlidingWindowWaitHonorsContext(t *testing.T) {
	window := NewSlidingWindow(1, time.Hour)
	require.NoError(t, window.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := window.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
