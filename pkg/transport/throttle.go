package transport

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter returns a token bucket allowing rps requests per second with
// the given burst, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Throttle blocks until l admits one request. A nil limiter never blocks.
func Throttle(ctx context.Context, l *rate.Limiter, protocol string) error {
	if l == nil {
		return nil
	}
	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	ObserveThrottle(protocol, time.Since(start))
	return nil
}
