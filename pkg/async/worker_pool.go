package async

import (
	"context"
	"sync"
	"sync/atomic"
)

type Iteratee[T any] func(context.Context, T) error

// WorkerPool consumes ch with up to concurrency goroutines. The first error
// returned by fn stops admission of new items; items already in flight
// finish. Returns that first error, if any.
func WorkerPool[T any](ctx context.Context, concurrency int, ch <-chan T, fn Iteratee[T]) error {
	semaphore := make(chan struct{}, concurrency)
	aErr := atomic.Pointer[error]{}

	var wg sync.WaitGroup

	for m := range ch {
		// Keep draining after a failure so the producer never blocks.
		if err := aErr.Load(); err != nil {
			continue
		}

		semaphore <- struct{}{}
		wg.Add(1)

		go func(m T) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			if err := fn(ctx, m); err != nil {
				aErr.CompareAndSwap(nil, &err)
			}
		}(m)
	}

	wg.Wait()

	if err := aErr.Load(); err != nil {
		return *err
	}
	return nil
}
