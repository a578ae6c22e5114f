package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldRetryRespectsAttemptBudget(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(3, time.Millisecond, time.Second)
	err := errors.New("boom")

	require.True(t, policy.ShouldRetry(err, 1))
	require.True(t, policy.ShouldRetry(err, 2))
	require.False(t, policy.ShouldRetry(err, 3))
}

func TestShouldRetryNilError(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(3, time.Millisecond, time.Second)
	require.False(t, policy.ShouldRetry(nil, 1))
}

func TestShouldRetryTimeoutsButNotCancellation(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(3, time.Millisecond, time.Second)

	// A per-request deadline counts as a retryable failure.
	timeout := fmt.Errorf("search request: %w", context.DeadlineExceeded)
	require.True(t, policy.ShouldRetry(timeout, 1))

	// Caller cancellation is terminal.
	canceled := fmt.Errorf("search request: %w", context.Canceled)
	require.False(t, policy.ShouldRetry(canceled, 1))
}

func TestBackoffGrowsAndStaysBounded(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	maxDelay := time.Second
	policy := NewExponentialRetryPolicy(10, base, maxDelay)

	for attempt := 0; attempt < 10; attempt++ {
		d := policy.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, maxDelay)
	}
	// The first backoff is at least half the base delay.
	require.GreaterOrEqual(t, policy.Backoff(0), base/2)
}

func TestRetryPolicyDefaults(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(0, 0, 0)
	require.Equal(t, 3, policy.MaxAttempts())
	require.LessOrEqual(t, policy.Backoff(0), 60*time.Second)
}
