package scraper

import (
	"context"
	"time"
)

// settleFirst blocks until idle returns or wait elapses, whichever comes
// first, and reports whether idle won. It never blocks past wait (or ctx).
//
// idle runs in its own goroutine. When the timer wins, that goroutine is
// abandoned: its completion lands in a buffered channel nobody reads, so
// the caller must make idle return eventually, typically by cancelling the
// context idle was built on.
func settleFirst(ctx context.Context, wait time.Duration, idle func()) bool {
	done := make(chan struct{}, 1)
	go func() {
		idle()
		done <- struct{}{}
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
