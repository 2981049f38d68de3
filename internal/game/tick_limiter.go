package game

import (
	"context"
	"time"
)

// TickLimiter paces the host loop to a fixed tick rate.
type TickLimiter struct {
	rate int
	next time.Time
}

// NewTickLimiter creates a limiter for rate ticks per second. A rate of
// zero or less disables pacing.
func NewTickLimiter(rate int) *TickLimiter {
	return &TickLimiter{rate: rate}
}

// Wait blocks until the next tick is due or ctx is done. Uses a hybrid
// sleep/spin approach for better precision on high tick rates.
func (l *TickLimiter) Wait(ctx context.Context) error {
	if l.rate <= 0 {
		l.next = time.Time{}
		return ctx.Err()
	}

	target := time.Second / time.Duration(l.rate)
	if l.next.IsZero() {
		l.next = time.Now().Add(target)
	} else {
		l.next = l.next.Add(target)
	}

	for {
		remaining := time.Until(l.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			t := time.NewTimer(remaining - 200*time.Microsecond)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		// busy-wait for the final few microseconds
		if time.Until(l.next) <= 0 {
			break
		}
	}

	// resync after a hitch to avoid drift
	if late := -time.Until(l.next); late > target {
		l.next = time.Now().Add(target)
	}
	return ctx.Err()
}
