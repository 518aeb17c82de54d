// Package retry runs an operation under an explicit retry policy.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffFunc returns the delay to wait after the given failed attempt
// (1-based) before the next one.
type BackoffFunc func(attempt int) time.Duration

type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   func(error) bool
	// OnRetry, when set, is called before sleeping for the next attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ShouldRetry reports whether a failure on attempt (1-based) gets another try.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts() {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Delay returns the wait before the attempt following attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Exponential doubles base on every attempt up to max and spreads the result
// by up to ±jitter (a fraction of the delay).
func Exponential(base, max time.Duration, jitter float64) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		delay := max
		if f := float64(base) * math.Pow(2, float64(attempt-1)); f < float64(max) {
			delay = time.Duration(f)
		}
		if jitter > 0 {
			spread := float64(delay) * jitter
			delay += time.Duration(spread * (2*rand.Float64() - 1))
		}
		if delay < 0 {
			delay = 0
		}
		return delay
	}
}

func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

var wait = func(ctx context.Context, d time.Duration) error {
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

// Run calls op until it succeeds, returns a non-retryable error, the attempt
// budget is spent or ctx is done.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do is Run for operations that produce a value.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !p.ShouldRetry(err, attempt) {
			if attempt > 1 {
				return zero, fmt.Errorf("after %d attempts: %w", attempt, err)
			}
			return zero, err
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if werr := wait(ctx, delay); werr != nil {
			return zero, fmt.Errorf("waiting for retry: %w (last error: %v)", werr, err)
		}
	}
}
