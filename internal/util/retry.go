// ABOUTME: Exponential backoff with jitter for retried collaborator calls
// ABOUTME: Used by the embedding client between failed attempts
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps the delay before jitter is applied.
const MaxBackoff = 30 * time.Second

// CalculateBackoff returns baseDelay doubled per attempt, capped at
// MaxBackoff, with up to 25% jitter either way. Attempts <= 0 wait nothing.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// 1<<30 already exceeds any sane cap
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > MaxBackoff || backoff <= 0 {
		backoff = MaxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	return backoff + jitter
}

// Wait blocks for the backoff of the given attempt or until ctx is done,
// whichever comes first. It returns ctx.Err() when interrupted.
func Wait(ctx context.Context, baseDelay time.Duration, attempt int) error {
	d := CalculateBackoff(baseDelay, attempt)
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
