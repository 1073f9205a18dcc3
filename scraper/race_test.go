package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettleFirst_IdleWins(t *testing.T) {
	start := time.Now()
	won := settleFirst(context.Background(), 5*time.Second, func() {
		time.Sleep(10 * time.Millisecond)
	})
	assert.True(t, won)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSettleFirst_TimerWinsAndNeverBlocks(t *testing.T) {
	idleCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wait := 50 * time.Millisecond
	start := time.Now()
	won := settleFirst(context.Background(), wait, func() {
		<-idleCtx.Done() // a page that never goes quiet
	})
	elapsed := time.Since(start)

	assert.False(t, won)
	assert.GreaterOrEqual(t, elapsed, wait)
	assert.Less(t, elapsed, wait+500*time.Millisecond)
}

func TestSettleFirst_AbandonedIdleDoesNotLeak(t *testing.T) {
	idleCtx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})

	settleFirst(context.Background(), 10*time.Millisecond, func() {
		<-idleCtx.Done()
		close(returned)
	})
	cancel()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("abandoned idle waiter did not return after cancel")
	}
}

func TestSettleFirst_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	won := settleFirst(ctx, 5*time.Second, func() { <-block })
	assert.False(t, won)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPause(t *testing.T) {
	assert.NoError(t, pause(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pause(ctx, time.Hour), context.Canceled)
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, "SCRAPE_TIMEOUT", categorizeError(context.DeadlineExceeded, "x").Code)
	assert.Equal(t, "SCRAPE_TIMEOUT", categorizeError(context.Canceled, "x").Code)

	se := categorizeError(errBoom, "navigation to target URL failed")
	assert.Equal(t, "NAVIGATION_FAILED", se.Code)
	assert.Equal(t, "navigation to target URL failed: boom", se.UserMessage())
}
