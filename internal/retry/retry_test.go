package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsFirstSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Do(context.Background(), 5, time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAllAttempts(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	calls := 0
	_, err := Do(context.Background(), 4, 0, func(context.Context) (int, error) {
		calls++
		return 0, cause
	})

	// An always-failing operation is attempted exactly attempts times.
	assert.Equal(t, 4, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.ErrorIs(t, err, cause)
}

func TestDoBackoffGrowsLinearly(t *testing.T) {
	t.Parallel()

	base := 10 * time.Millisecond
	start := time.Now()
	_, err := Do(context.Background(), 3, base, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	// Waits of base and 2×base between the three attempts.
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestDoContextCancelCutsBackoffShort(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, 10, time.Minute, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoAtLeastOneAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), 0, 0, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
