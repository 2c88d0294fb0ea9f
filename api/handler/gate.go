package handler

import (
	"context"
	"sync/atomic"
)

// Gate admits one holder at a time. Waiters give up when their context
// ends.
type Gate struct {
	slot    chan struct{}
	waiting atomic.Int32
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// Acquire blocks until the gate is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	// Non-blocking first so a cancelled context never wins over a free slot.
	select {
	case g.slot <- struct{}{}:
		return nil
	default:
	}

	g.waiting.Add(1)
	defer g.waiting.Add(-1)
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the gate for the next waiter.
func (g *Gate) Release() {
	<-g.slot
}

// Busy reports whether a holder is inside.
func (g *Gate) Busy() bool {
	return len(g.slot) > 0
}

// Waiting is the number of callers blocked in Acquire.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}
