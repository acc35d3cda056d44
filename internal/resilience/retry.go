// Package resilience retries calls to LinkedIn, Snov and Anthropic and
// classifies their failures.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy is an exponential backoff retry policy with optional jitter.
type Policy struct {
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// JitterFraction spreads each delay by up to this fraction either way.
	JitterFraction float64

	// ShouldRetry defaults to IsTransient.
	ShouldRetry func(err error) bool
	OnRetry     func(attempt int, err error)
	// Sleep defaults to SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy tries five times, waiting 2s, 4s, 8s and 16s in between.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     time.Minute,
		Multiplier:     2,
	}
}

// RateLimitOnly narrows p to retrying 429 responses.
func RateLimitOnly(p Policy) Policy {
	p.ShouldRetry = IsRateLimited
	return p
}

// Do runs fn under p.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal runs fn under p and returns the first successful value. The last
// error is returned once attempts run out, the error is not retryable or ctx
// is done.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.MaxAttempts || ctx.Err() != nil || !p.ShouldRetry(err) {
			return zero, err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.Sleep(ctx, p.backoff(attempt)) != nil {
			return zero, err
		}
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	if p.Multiplier <= 0 {
		p.Multiplier = def.Multiplier
	}
	p.JitterFraction = max(p.JitterFraction, 0)
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsTransient
	}
	if p.Sleep == nil {
		p.Sleep = SleepContext
	}
	return p
}

// backoff is the wait after the given failed attempt, counted from 1.
func (p Policy) backoff(attempt int) time.Duration {
	d := min(float64(p.InitialBackoff)*math.Pow(p.Multiplier, float64(attempt-1)), float64(p.MaxBackoff))
	if p.JitterFraction > 0 {
		d += (rand.Float64()*2 - 1) * d * p.JitterFraction
	}
	return time.Duration(max(d, 0))
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryLogger logs each retry of service's op at warn level.
func RetryLogger(service, op string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying call",
			zap.String("service", service),
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.String("class", string(Classify(err))),
			zap.Error(err),
		)
	}
}
