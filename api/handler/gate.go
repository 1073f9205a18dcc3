package handler

import (
	"context"
	"sync/atomic"
)

// RunGate caps concurrent browse runs. Each run launches its own browser,
// so the cap bounds Chromium processes on the host.
type RunGate struct {
	slots  chan struct{}
	active atomic.Int32
}

// NewRunGate allows max simultaneous runs (at least one).
func NewRunGate(max int) *RunGate {
	if max < 1 {
		max = 1
	}
	return &RunGate{slots: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or ctx ends.
func (g *RunGate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		g.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (g *RunGate) Release() {
	g.active.Add(-1)
	<-g.slots
}

// Active is the number of runs in progress.
func (g *RunGate) Active() int { return int(g.active.Load()) }

// Max is the configured cap.
func (g *RunGate) Max() int { return cap(g.slots) }
