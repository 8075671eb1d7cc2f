package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy yields the delay before the next attempt.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// UniformBackoff waits a uniformly random duration between Min and Max before
// each attempt. This is the polite-scraping delay the remote site expects:
// the spread, not growth, is the point.
type UniformBackoff struct {
	Min time.Duration
	Max time.Duration
}

// NextDelay returns a uniform random delay in [Min, Max].
func (ub *UniformBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if ub.Max <= ub.Min {
		return ub.Min
	}
	return ub.Min + time.Duration(rand.Int63n(int64(ub.Max-ub.Min)))
}

// ConstantBackoff waits a fixed delay between attempts.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// Wait sleeps for delay or until the context is cancelled.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
