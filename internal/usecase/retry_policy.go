package usecase

import (
	"context"
	"math/rand/v2"
	"time"

	"payment_binder/internal/domain/entities"
)

// RetryPolicy bounds the attempts made for one Submit call.
//
// Network failures get up to MaxAttempts attempts in total, unknown failures at most two,
// everything else exactly one. Delays grow as BaseDelay*2^(n-1), capped at MaxDelay, and each
// delay is drawn uniformly from [d/2, d] when Jitter is set.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      true,
	}
}

// ShouldRetry reports whether another attempt is allowed after attempt (1-based) failed with err.
func (p RetryPolicy) ShouldRetry(err *entities.NormalizedError, attempt int) bool {
	if err == nil || !err.Retriable {
		return false
	}
	switch err.Kind {
	case entities.ErrorKindNetwork:
		return attempt < p.maxAttempts()
	case entities.ErrorKindUnknown:
		return attempt < 2 && attempt < p.maxAttempts()
	default:
		return false
	}
}

// Backoff returns the delay before attempt+1, given that attempt (1-based) just failed.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 1 {
		half := d / 2
		d = half + time.Duration(rand.Int64N(int64(d-half)+1))
	}
	return d
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
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
