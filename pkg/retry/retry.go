package retry

import (
	"context"
	"time"
)

// Do runs fn until it succeeds or attempts are exhausted, doubling the delay
// between attempts. The last error is returned. Respects ctx cancellation
// while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	var err error

	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
