package scheduler

import (
	"context"
	"time"
)

// retry calls fn until it succeeds or retries additional attempts have failed.
// onRetry runs before each extra attempt with the number of retries left after it.
func retry[T any](ctx context.Context, clock Clock, retries int, delay time.Duration,
	fn func(ctx context.Context) (T, error), onRetry func(left int, err error)) (T, error) {
	var zero T

	result, err := fn(ctx)
	for left := retries; err != nil && left > 0; left-- {
		if onRetry != nil {
			onRetry(left, err)
		}
		if sleepErr := clock.Sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
		result, err = fn(ctx)
	}
	if err != nil {
		return zero, err
	}

	return result, nil
}
