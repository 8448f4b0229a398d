package async_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"storyd/pkg/async"
)

func feed(n int) <-chan int {
	ch := make(chan int)
	go func() {
		defer close(ch)
		for i := range n {
			ch <- i
		}
	}()
	return ch
}

func TestWorkerPool(t *testing.T) {
	t.Parallel()

	t.Run("processes every item", func(t *testing.T) {
		t.Parallel()

		var (
			mu   sync.Mutex
			seen = map[int]bool{}
		)

		err := async.WorkerPool(t.Context(), 4, feed(100), func(_ context.Context, i int) error {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = true
			return nil
		})

		require.NoError(t, err)
		require.Len(t, seen, 100)
	})

	t.Run("never exceeds the concurrency limit", func(t *testing.T) {
		t.Parallel()

		var active, peak atomic.Int64

		err := async.WorkerPool(t.Context(), 4, feed(50), func(context.Context, int) error {
			n := active.Add(1)
			defer active.Add(-1)

			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return nil
		})

		require.NoError(t, err)
		require.LessOrEqual(t, peak.Load(), int64(4))
	})

	t.Run("returns the first error and keeps draining the channel", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")

		err := async.WorkerPool(t.Context(), 2, feed(100), func(_ context.Context, i int) error {
			if i == 3 {
				return boom
			}
			return nil
		})

		// The producer goroutine in feed sent all items, so we got here
		// without deadlocking.
		require.ErrorIs(t, err, boom)
	})

	t.Run("empty channel returns immediately", func(t *testing.T) {
		t.Parallel()

		err := async.WorkerPool(t.Context(), 2, feed(0), func(context.Context, int) error {
			t.Error("iteratee called for empty channel")
			return nil
		})
		require.NoError(t, err)
	})
}
