package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storyd/pkg/retry"
)

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("returns on first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retry.Do(t.Context(), 3, time.Millisecond, func(context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := retry.Do(t.Context(), 3, time.Millisecond, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("returns the last error when attempts are exhausted", func(t *testing.T) {
		t.Parallel()

		last := errors.New("still broken")

		calls := 0
		err := retry.Do(t.Context(), 3, time.Millisecond, func(context.Context) error {
			calls++
			if calls == 3 {
				return last
			}
			return errors.New("broken")
		})

		require.ErrorIs(t, err, last)
		require.Equal(t, 3, calls)
	})

	t.Run("stops waiting when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())

		calls := 0
		err := retry.Do(ctx, 5, time.Hour, func(context.Context) error {
			calls++
			cancel()
			return errors.New("broken")
		})

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, calls)
	})
}
