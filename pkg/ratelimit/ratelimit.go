package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates calls to a remote API. Wait blocks until the next call is allowed or ctx is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewInterval returns a limiter that enforces at least d between two calls. The first call passes immediately.
// A non-positive d disables limiting.
func NewInterval(d time.Duration) Limiter {
	if d <= 0 {
		return None()
	}

	return rate.NewLimiter(rate.Every(d), 1)
}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

// None returns a limiter that never waits. It still honors a cancelled context.
func None() Limiter {
	return unlimited{}
}
