// Package resilience bounds concurrent numeric work and isolates snapshot
// persistence failures using fortify.
package resilience

import (
	"context"
	"runtime"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ferrors"
)

// ErrSaturated is returned by Limiter.Do when every slot and every queue
// position is taken, or after Close.
var ErrSaturated = ferrors.ErrBulkheadFull

// Limiter caps how many calls run at once. Calls beyond the cap wait in a
// queue of maxQueue slots; a call that finds the queue full as well fails
// with ErrSaturated.
type Limiter[T any] struct {
	bulkhead      bulkhead.Bulkhead[T]
	maxConcurrent int
	maxQueue      int
}

// NewLimiter creates a limiter. A non-positive maxConcurrent defaults to
// GOMAXPROCS. Callers that submit a known number of calls should size
// maxQueue to that number so no call is rejected. Close releases the queue
// worker.
func NewLimiter[T any](maxConcurrent, maxQueue int) *Limiter[T] {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	if maxQueue < 0 {
		maxQueue = 0
	}
	return &Limiter[T]{
		bulkhead: bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxQueue,
		}),
		maxConcurrent: maxConcurrent,
		maxQueue:      maxQueue,
	}
}

// Do runs fn once a slot is free.
func (l *Limiter[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return l.bulkhead.Execute(ctx, fn)
}

// MaxConcurrent returns the configured limit.
func (l *Limiter[T]) MaxConcurrent() int {
	return l.maxConcurrent
}

// MaxQueue returns the number of calls that may wait for a slot.
func (l *Limiter[T]) MaxQueue() int {
	return l.maxQueue
}

// Close stops the limiter. In-flight calls finish; later calls are rejected.
func (l *Limiter[T]) Close() error {
	return l.bulkhead.Close()
}
