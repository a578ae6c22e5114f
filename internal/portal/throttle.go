package portal

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle paces outbound portal requests with a token bucket so a high
// concurrency setting cannot hammer the single upstream host.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle builds a Throttle allowing rps requests per second with the
// given burst. rps <= 0 disables pacing; burst defaults to 1.
func NewThrottle(rps float64, burst int) *Throttle {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or the context finishes.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle wait: %w", err)
	}
	return nil
}
