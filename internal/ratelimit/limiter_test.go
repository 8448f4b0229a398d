package ratelimit_test

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storyd/internal/config"
	"storyd/internal/core"
	"storyd/internal/core/coretest"
	"storyd/internal/ratelimit"
)

func newLimiter(t *testing.T, cfg *config.Config) (*ratelimit.Limiter, *coretest.CounterStore) {
	t.Helper()

	counter := coretest.NewCounterStore()

	limiter := &ratelimit.Limiter{
		Logger:  slog.New(slog.DiscardHandler),
		Config:  cfg,
		Counter: counter,
		Clock:   coretest.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, limiter.Init(t.Context()))

	return limiter, counter
}

func testConfig() *config.Config {
	return &config.Config{
		RateWindow:         time.Minute,
		RateLimitStories:   5,
		RateLimitReactions: 10,
		RateLimitViews:     20,
		RateFailOpen:       true,
	}
}

func TestLimiter_Admit(t *testing.T) {
	t.Parallel()

	t.Run("admits up to the limit, then throttles", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newLimiter(t, testConfig())

		for range 5 {
			require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory))
		}
		require.ErrorIs(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory), core.ErrThrottled)
	})

	t.Run("limits are per actor", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newLimiter(t, testConfig())

		for range 5 {
			require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory))
		}
		require.NoError(t, limiter.Admit(t.Context(), "bob", ratelimit.ActionCreateStory))
	})

	t.Run("limits are per action", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newLimiter(t, testConfig())

		for range 5 {
			require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory))
		}
		require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionReact))
	})

	t.Run("concurrent attempts never exceed the limit", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newLimiter(t, testConfig())

		const attempts = 20

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted int
		)

		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory)
				if err == nil {
					mu.Lock()
					admitted++
					mu.Unlock()
				} else {
					require.ErrorIs(t, err, core.ErrThrottled)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 5, admitted)
	})

	t.Run("fail-open admits when the counter store is down", func(t *testing.T) {
		t.Parallel()

		limiter, counter := newLimiter(t, testConfig())
		counter.Err = errors.New("connection refused")

		require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory))
	})

	t.Run("fail-closed rejects when the counter store is down", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.RateFailOpen = false

		limiter, counter := newLimiter(t, cfg)
		counter.Err = errors.New("connection refused")

		require.ErrorIs(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory), core.ErrUnavailable)
	})

	t.Run("zero window disables limiting", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.RateWindow = 0

		limiter, counter := newLimiter(t, cfg)

		for range 100 {
			require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory))
		}
		require.Zero(t, counter.Calls())
	})

	t.Run("sub-second window still admits and throttles", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.RateWindow = 500 * time.Millisecond

		limiter, _ := newLimiter(t, cfg)

		for range 5 {
			require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory))
		}
		require.ErrorIs(t, limiter.Admit(t.Context(), "alice", ratelimit.ActionCreateStory), core.ErrThrottled)
	})

	t.Run("unknown actions are not limited", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newLimiter(t, testConfig())

		for range 100 {
			require.NoError(t, limiter.Admit(t.Context(), "alice", ratelimit.Action("exports")))
		}
	})
}
