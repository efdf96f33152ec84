// Package retry provides a generic retry combinator for fallible network
// operations.
package retry

import (
	"context"
	"fmt"
	"time"
)

// ExhaustedError is the terminal error after every attempt failed. It wraps
// the last failure as cause.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// Do runs op up to attempts times, sleeping baseDelay × attemptNumber
// between failures so the backoff grows linearly. op must be a fresh
// operation, not an already-started one; each retry performs a new attempt.
// Context cancellation cuts the backoff short and returns the context error.
func Do[T any](ctx context.Context, attempts int, baseDelay time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, baseDelay*time.Duration(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Cause: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
